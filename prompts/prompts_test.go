package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wfunc/spyarena/config"
	"github.com/wfunc/spyarena/models"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	cfg := &config.Config{
		Players: []config.PlayerConfig{
			{Nickname: "A", Model: "m"},
			{Nickname: "B", Model: "m"},
			{Nickname: "C", Model: "m"},
		},
	}
	builder, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return builder
}

func TestBuilder_System_SubstitutesPlayers(t *testing.T) {
	b := newTestBuilder(t)
	system := b.System()
	if !strings.Contains(system, "A, B, C") {
		t.Errorf("System prompt should list the players, got:\n%s", system)
	}
	if strings.Contains(system, "{{") {
		t.Errorf("System prompt has unresolved placeholders:\n%s", system)
	}
}

func TestBuilder_RolePrompt(t *testing.T) {
	b := newTestBuilder(t)

	civilian := b.RolePrompt(models.Role{IsSpy: false, Location: "Bank"})
	if !strings.Contains(civilian, "Bank") {
		t.Errorf("Civilian prompt should name the location, got:\n%s", civilian)
	}

	spy := b.RolePrompt(models.Role{IsSpy: true})
	if strings.Contains(spy, "Bank") {
		t.Error("Spy prompt must not leak the location")
	}
	if spy == civilian {
		t.Error("Spy and civilian prompts must differ")
	}
}

func TestBuilder_QuestionPrompt_ListsTargets(t *testing.T) {
	b := newTestBuilder(t)
	prompt := b.QuestionPrompt(nil, []string{"B", "C"})
	if !strings.Contains(prompt, "B, C") {
		t.Errorf("Question prompt should list valid targets, got:\n%s", prompt)
	}
}

func TestBuilder_HistorySkipsSkippedTurns(t *testing.T) {
	b := newTestBuilder(t)
	history := []models.Turn{
		{TurnNumber: 1, Asker: "A", Answerer: "B", Question: "How was the drive?", Answer: "Quick."},
		{TurnNumber: 2, Asker: "B", Skipped: true},
	}

	prompt := b.AnswerPrompt(history, "C", "Do you come here often?")
	if !strings.Contains(prompt, "How was the drive?") {
		t.Errorf("Completed turns should appear in the history, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Turn 2") {
		t.Errorf("Skipped turns must not appear in the history, got:\n%s", prompt)
	}
}

func TestBuilder_VoteAndGuessPrompts(t *testing.T) {
	b := newTestBuilder(t)

	enabled := b.VoteInitiationPrompt(nil, true)
	disabled := b.VoteInitiationPrompt(nil, false)
	if enabled == disabled {
		t.Error("Initiation prompt should change once the player has spent their vote")
	}

	ballot := b.VoteDecisionPrompt(nil, "A", "B")
	if !strings.Contains(ballot, "A") || !strings.Contains(ballot, "B") {
		t.Errorf("Ballot prompt should name initiator and suspect, got:\n%s", ballot)
	}

	guess := b.SpyGuessPrompt(nil, []string{"Bank", "Beach"})
	if !strings.Contains(guess, "Bank, Beach") {
		t.Errorf("Guess prompt should list the location pool, got:\n%s", guess)
	}
}

func TestBuilder_ConfiguredTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.txt")
	if err := os.WriteFile(path, []byte("Custom system for {{ players }}."), 0o644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}

	cfg := &config.Config{
		Players: []config.PlayerConfig{
			{Nickname: "A", Model: "m"},
			{Nickname: "B", Model: "m"},
			{Nickname: "C", Model: "m"},
		},
		Prompts: config.PromptsConfig{SystemTemplate: path},
	}
	builder, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	if got := builder.System(); got != "Custom system for A, B, C." {
		t.Errorf("Expected override template, got %q", got)
	}
}
