package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ParamPlaceholder is replaced by the parameter value in argv and env values.
const ParamPlaceholder = "{param}"

var (
	ErrActionNotFound       = errors.New("action not found")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrNoRunnableOption     = errors.New("no runnable option")
	ErrConfirmationRequired = errors.New("destructive action requires confirmation")
)

type Mode string

const (
	ModeBlocking   Mode = "blocking"
	ModeBackground Mode = "background"
)

func (m Mode) Validate() error {
	switch m {
	case ModeBlocking, ModeBackground:
		return nil
	default:
		return fmt.Errorf("unknown action mode: %s", m)
	}
}

const (
	SourceTable  = "table"
	SourceScript = "script"
)

func PluginSource(name string) string {
	return "plugin:" + name
}

// Parameter is a single-choice argument. An empty Choices list accepts any
// non-empty value.
type Parameter struct {
	Label              string
	Choices            []string
	Default            string
	DestructiveChoices []string
}

func (p Parameter) Validate() error {
	if p.Default != "" && len(p.Choices) > 0 && !contains(p.Choices, p.Default) {
		return fmt.Errorf("parameter default %q is not a choice", p.Default)
	}
	for _, c := range p.DestructiveChoices {
		if len(p.Choices) > 0 && !contains(p.Choices, c) {
			return fmt.Errorf("destructive choice %q is not a choice", c)
		}
	}
	return nil
}

// Effective returns the default when value is empty.
func (p Parameter) Effective(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = p.Default
	}
	if value == "" && len(p.Choices) > 0 {
		value = p.Choices[0]
	}
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParameter, p.displayLabel())
	}
	if len(p.Choices) > 0 && !contains(p.Choices, value) {
		return "", fmt.Errorf("%w: %q not in [%s]", ErrInvalidParameter, value, strings.Join(p.Choices, ", "))
	}
	return value, nil
}

func (p Parameter) displayLabel() string {
	if p.Label == "" {
		return "parameter"
	}
	return p.Label
}

// Option is one way of running an action. Script options point at a file
// that must exist at resolve time.
type Option struct {
	Label       string
	File        string
	RelPath     string
	Argv        []string
	AppendParam bool
}

// Command expands the argv template for param.
func (o Option) Command(param string) []string {
	out := make([]string, 0, len(o.Argv)+1)
	substituted := false
	for _, arg := range o.Argv {
		if strings.Contains(arg, ParamPlaceholder) {
			substituted = true
			arg = strings.ReplaceAll(arg, ParamPlaceholder, param)
		}
		out = append(out, arg)
	}
	if param != "" && o.AppendParam && !substituted {
		out = append(out, param)
	}
	return out
}

type Action struct {
	Key         string
	Label       string
	Category    string
	Description string
	Source      string
	Destructive bool
	Options     []Option
	Parameter   *Parameter
	Requires    []string
	Mode        Mode
	Check       bool
	Env         map[string]string
	Dir         string
}

func (a Action) Validate() error {
	if a.Key == "" {
		return fmt.Errorf("action key is required")
	}
	if a.Label == "" {
		return fmt.Errorf("action %s: label is required", a.Key)
	}
	if len(a.Options) == 0 {
		return fmt.Errorf("action %s: at least one option is required", a.Key)
	}
	for _, o := range a.Options {
		if len(o.Argv) == 0 {
			return fmt.Errorf("action %s: option %q has no command", a.Key, o.Label)
		}
	}
	if err := a.Mode.Validate(); err != nil {
		return fmt.Errorf("action %s: %w", a.Key, err)
	}
	if a.Parameter != nil {
		if err := a.Parameter.Validate(); err != nil {
			return fmt.Errorf("action %s: %w", a.Key, err)
		}
	}
	return nil
}

// IsDestructive reports whether running with param needs confirmation.
// Declared DestructiveChoices decide on their own, with or without the flag.
func (a Action) IsDestructive(param string) bool {
	if a.Parameter != nil && len(a.Parameter.DestructiveChoices) > 0 {
		return contains(a.Parameter.DestructiveChoices, param)
	}
	return a.Destructive
}

// MayBeDestructive reports whether any invocation needs confirmation.
func (a Action) MayBeDestructive() bool {
	return a.Destructive || (a.Parameter != nil && len(a.Parameter.DestructiveChoices) > 0)
}

// ExpandEnv substitutes the parameter into env values.
func (a Action) ExpandEnv(param string) map[string]string {
	if len(a.Env) == 0 {
		return nil
	}
	out := make(map[string]string, len(a.Env))
	for k, v := range a.Env {
		out[k] = strings.ReplaceAll(v, ParamPlaceholder, param)
	}
	return out
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
