package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wfunc/spyarena/config"
	"github.com/wfunc/spyarena/logger"
)

// Metrics receives agent call observations. The monitor package implements
// it; a nil Metrics disables observation.
type Metrics interface {
	IncAgentRequests()
	IncAgentFailures()
	ObserveAgentLatency(d time.Duration)
}

// Client calls an OpenRouter-compatible chat-completions API for one
// configured player. A failed request is retried once with backoff before
// being reported as unavailable.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	backoff     time.Duration
	httpClient  *http.Client
	metrics     Metrics
}

// NewClient builds the capability for one player.
func NewClient(cfg config.AgentConfig, player config.PlayerConfig, metrics Metrics) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       player.Model,
		temperature: player.Temperature,
		maxRetries:  cfg.MaxRetries,
		backoff:     500 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		metrics: metrics,
	}
}

// NewRoster builds one client per configured player.
func NewRoster(cfg *config.Config, metrics Metrics) Roster {
	roster := make(Roster, len(cfg.Players))
	for _, p := range cfg.Players {
		roster[p.Nickname] = NewClient(cfg.Agent, p, metrics)
	}
	return roster
}

func (c *Client) AskQuestion(ctx context.Context, p Prompt) (QuestionResponse, error) {
	var resp QuestionResponse
	if err := c.generate(ctx, p, &resp); err != nil {
		return QuestionResponse{}, err
	}
	if resp.TargetNickname == "" || resp.Question == "" {
		return QuestionResponse{}, fmt.Errorf("%w: missing target or question", ErrMalformedResponse)
	}
	return resp, nil
}

func (c *Client) Answer(ctx context.Context, p Prompt) (AnswerResponse, error) {
	var resp AnswerResponse
	if err := c.generate(ctx, p, &resp); err != nil {
		return AnswerResponse{}, err
	}
	if resp.Answer == "" {
		return AnswerResponse{}, fmt.Errorf("%w: missing answer", ErrMalformedResponse)
	}
	return resp, nil
}

func (c *Client) ConsiderVote(ctx context.Context, p Prompt) (VoteInitiationResponse, error) {
	var resp VoteInitiationResponse
	if err := c.generate(ctx, p, &resp); err != nil {
		return VoteInitiationResponse{}, err
	}
	if resp.InitiateVote && resp.SuspectNickname == "" {
		return VoteInitiationResponse{}, fmt.Errorf("%w: vote initiated without a suspect", ErrMalformedResponse)
	}
	return resp, nil
}

func (c *Client) CastBallot(ctx context.Context, p Prompt) (BallotResponse, error) {
	var resp BallotResponse
	if err := c.generate(ctx, p, &resp); err != nil {
		return BallotResponse{}, err
	}
	return resp, nil
}

func (c *Client) ConsiderGuess(ctx context.Context, p Prompt) (GuessResponse, error) {
	var resp GuessResponse
	if err := c.generate(ctx, p, &resp); err != nil {
		return GuessResponse{}, err
	}
	if resp.MakeGuess && resp.LocationGuess == "" {
		return GuessResponse{}, fmt.Errorf("%w: guess declared without a location", ErrMalformedResponse)
	}
	return resp, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// generate performs one structured-output chat call and unmarshals the
// model's JSON reply into out.
func (c *Client) generate(ctx context.Context, p Prompt, out any) error {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature:    c.temperature,
		ResponseFormat: &formatSpec{Type: "json_object"},
	})
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(c.backoff << (attempt - 1)):
			}
			logger.Log.Warnf("Retrying agent call for model %s (attempt %d)", c.model, attempt+1)
		}

		content, err := c.post(ctx, body)
		if err != nil {
			lastErr = err
			continue
		}
		if err := json.Unmarshal([]byte(content), out); err != nil {
			// A parse failure is the model's fault, not the transport's;
			// retrying may still yield valid JSON.
			lastErr = fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			continue
		}
		return nil
	}
	if errors.Is(lastErr, ErrMalformedResponse) {
		return lastErr
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.IncAgentRequests()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.observeFailure(start)
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer res.Body.Close()

	if c.metrics != nil {
		c.metrics.ObserveAgentLatency(time.Since(start))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if c.metrics != nil {
			c.metrics.IncAgentFailures()
		}
		return "", fmt.Errorf("chat request status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload chatResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) observeFailure(start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.IncAgentFailures()
	c.metrics.ObserveAgentLatency(time.Since(start))
}
