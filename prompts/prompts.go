// Package prompts assembles the natural-language payloads sent to agents.
// Default templates are embedded; the config may point at replacement files.
package prompts

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/wfunc/spyarena/config"
	"github.com/wfunc/spyarena/models"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Builder renders the prompts for every agent action.
type Builder struct {
	systemTemplate   string
	civilianTemplate string
	spyTemplate      string
	players          []string
}

// NewBuilder loads the templates, preferring files named in the config over
// the embedded defaults.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	system, err := loadTemplate(cfg.Prompts.SystemTemplate, "templates/system_prompt.txt")
	if err != nil {
		return nil, err
	}
	civilian, err := loadTemplate(cfg.Prompts.CivilianTemplate, "templates/civilian_role.txt")
	if err != nil {
		return nil, err
	}
	spy, err := loadTemplate(cfg.Prompts.SpyTemplate, "templates/spy_role.txt")
	if err != nil {
		return nil, err
	}

	return &Builder{
		systemTemplate:   system,
		civilianTemplate: civilian,
		spyTemplate:      spy,
		players:          cfg.Nicknames(),
	}, nil
}

func loadTemplate(path, embedded string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("load prompt template %s: %w", path, err)
		}
		return string(data), nil
	}
	data, err := templateFS.ReadFile(embedded)
	if err != nil {
		return "", fmt.Errorf("load embedded template %s: %w", embedded, err)
	}
	return string(data), nil
}

// System returns the shared system prompt.
func (b *Builder) System() string {
	return strings.ReplaceAll(b.systemTemplate, "{{ players }}", strings.Join(b.players, ", "))
}

// RolePrompt returns the secret-role preamble for one player.
func (b *Builder) RolePrompt(role models.Role) string {
	if role.IsSpy {
		return b.spyTemplate
	}
	return strings.ReplaceAll(b.civilianTemplate, "{{ location }}", role.Location)
}

// QuestionPrompt asks an agent to pick a target and a question.
func (b *Builder) QuestionPrompt(history []models.Turn, validTargets []string) string {
	var sb strings.Builder
	sb.WriteString(formatHistory(history))
	sb.WriteString("\n\nIt is your turn to ask a question. You may question one of: ")
	sb.WriteString(strings.Join(validTargets, ", "))
	sb.WriteString(".\nReply with JSON: {\"target_nickname\": \"...\", \"question\": \"...\"}")
	return sb.String()
}

// AnswerPrompt asks an agent to answer the question just posed to them.
func (b *Builder) AnswerPrompt(history []models.Turn, asker, question string) string {
	var sb strings.Builder
	sb.WriteString(formatHistory(history))
	sb.WriteString(fmt.Sprintf("\n\n%s asks you: %q\n", asker, question))
	sb.WriteString("Reply with JSON: {\"answer\": \"...\"}")
	return sb.String()
}

// VoteInitiationPrompt asks the current player whether to open an
// indictment vote.
func (b *Builder) VoteInitiationPrompt(history []models.Turn, canVote bool) string {
	var sb strings.Builder
	sb.WriteString(formatHistory(history))
	if canVote {
		sb.WriteString("\n\nBefore your turn you may accuse someone of being the spy. ")
		sb.WriteString("You can only do this once per round, and the vote must be unanimous to pass.")
	} else {
		sb.WriteString("\n\nYou have already initiated a vote this round and may not initiate another.")
	}
	sb.WriteString("\nReply with JSON: {\"initiate_vote\": true|false, \"suspect_nickname\": \"...\"}")
	return sb.String()
}

// VoteDecisionPrompt asks a player for their ballot on a suspect.
func (b *Builder) VoteDecisionPrompt(history []models.Turn, initiator, suspect string) string {
	var sb strings.Builder
	sb.WriteString(formatHistory(history))
	sb.WriteString(fmt.Sprintf("\n\n%s has accused %s of being the spy. ", initiator, suspect))
	sb.WriteString("The vote passes only if everyone votes yes.")
	sb.WriteString("\nReply with JSON: {\"vote_yes\": true|false}")
	return sb.String()
}

// SpyGuessPrompt asks the spy whether to end the round with a location guess.
func (b *Builder) SpyGuessPrompt(history []models.Turn, locations []string) string {
	var sb strings.Builder
	sb.WriteString(formatHistory(history))
	sb.WriteString("\n\nYou may end the round now by guessing the location. ")
	sb.WriteString("A correct guess wins you the round; a wrong guess ends it anyway. Possible locations: ")
	sb.WriteString(strings.Join(locations, ", "))
	sb.WriteString(".\nReply with JSON: {\"make_guess\": true|false, \"location_guess\": \"...\"}")
	return sb.String()
}

func formatHistory(history []models.Turn) string {
	if len(history) == 0 {
		return "The conversation has not started yet."
	}

	var sb strings.Builder
	sb.WriteString("Conversation so far:")
	for _, turn := range history {
		if turn.Skipped {
			continue
		}
		sb.WriteString(fmt.Sprintf("\nTurn %d: %s asked %s: %q\n  %s answered: %q",
			turn.TurnNumber, turn.Asker, turn.Answerer, turn.Question, turn.Answerer, turn.Answer))
	}
	return sb.String()
}
