package domain_test

import (
	"errors"
	"strings"
	"testing"

	"devlaunch/internal/modules/action/domain"
)

func TestParameterEffective(t *testing.T) {
	t.Parallel()
	p := domain.Parameter{Label: "Provider", Choices: []string{"status", "PRISMA", "DYNAMODB"}}
	if got, err := p.Effective(""); err != nil || got != "status" {
		t.Fatalf("expected first choice, got %q err=%v", got, err)
	}
	if got, err := p.Effective(" PRISMA "); err != nil || got != "PRISMA" {
		t.Fatalf("expected trimmed choice, got %q err=%v", got, err)
	}
	if _, err := p.Effective("mongo"); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
	free := domain.Parameter{Label: "Env"}
	if _, err := free.Effective(""); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected required parameter error, got %v", err)
	}
	if got, err := free.Effective("staging"); err != nil || got != "staging" {
		t.Fatalf("free parameter should accept any value, got %q err=%v", got, err)
	}
}

func TestOptionCommand(t *testing.T) {
	t.Parallel()
	appended := domain.Option{Argv: []string{"bash", "/s/run.sh"}, AppendParam: true}
	if got := strings.Join(appended.Command("start"), " "); got != "bash /s/run.sh start" {
		t.Fatalf("unexpected appended command: %s", got)
	}
	if got := strings.Join(appended.Command(""), " "); got != "bash /s/run.sh" {
		t.Fatalf("empty param must not be appended: %s", got)
	}
	placeholder := domain.Option{Argv: []string{"sam", "deploy", "--config-env={param}"}, AppendParam: true}
	if got := strings.Join(placeholder.Command("dev"), " "); got != "sam deploy --config-env=dev" {
		t.Fatalf("unexpected substituted command: %s", got)
	}
}

func TestIsDestructiveHonoursChoices(t *testing.T) {
	t.Parallel()
	a := domain.Action{
		Key:         "docker",
		Destructive: true,
		Parameter:   &domain.Parameter{Choices: []string{"start", "clean"}, DestructiveChoices: []string{"clean"}},
	}
	if a.IsDestructive("start") {
		t.Fatalf("start should not need confirmation")
	}
	if !a.IsDestructive("clean") {
		t.Fatalf("clean should need confirmation")
	}
	a.Destructive = false
	if !a.IsDestructive("clean") || !a.MayBeDestructive() {
		t.Fatalf("destructive choices should gate without the flag")
	}
	a.Destructive = true
	a.Parameter.DestructiveChoices = nil
	if !a.IsDestructive("start") {
		t.Fatalf("without destructive choices every value is destructive")
	}
	a.Destructive = false
	if a.IsDestructive("start") || a.MayBeDestructive() {
		t.Fatalf("plain action should never need confirmation")
	}
}

func TestActionValidate(t *testing.T) {
	t.Parallel()
	valid := domain.Action{Key: "k", Label: "L", Mode: domain.ModeBlocking, Options: []domain.Option{{Label: "default", Argv: []string{"true"}}}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	noOptions := valid
	noOptions.Options = nil
	if err := noOptions.Validate(); err == nil {
		t.Fatalf("expected error for missing options")
	}
	badMode := valid
	badMode.Mode = "detached"
	if err := badMode.Validate(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	badDefault := valid
	badDefault.Parameter = &domain.Parameter{Choices: []string{"a"}, Default: "b"}
	if err := badDefault.Validate(); err == nil {
		t.Fatalf("expected error for default outside choices")
	}
}
