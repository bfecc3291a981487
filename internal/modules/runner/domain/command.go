package domain

import (
	"fmt"
	"sort"
	"strings"

	apperrors "devlaunch/internal/platform/errors"
)

// Command is an immutable process description. The zero value is not runnable.
type Command struct {
	argv []string
	dir  string
	env  map[string]string
}

func NewCommand(argv []string, dir string, env map[string]string) (Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Command{}, fmt.Errorf("%w: command argv is required", apperrors.ErrInvalidInput)
	}
	c := Command{
		argv: append([]string(nil), argv...),
		dir:  dir,
	}
	if len(env) > 0 {
		c.env = make(map[string]string, len(env))
		for k, v := range env {
			if k == "" || strings.Contains(k, "=") {
				return Command{}, fmt.Errorf("%w: invalid env key %q", apperrors.ErrInvalidInput, k)
			}
			c.env[k] = v
		}
	}
	return c, nil
}

func (c Command) Argv() []string {
	return append([]string(nil), c.argv...)
}

func (c Command) Program() string {
	if len(c.argv) == 0 {
		return ""
	}
	return c.argv[0]
}

func (c Command) Args() []string {
	if len(c.argv) < 2 {
		return nil
	}
	return append([]string(nil), c.argv[1:]...)
}

func (c Command) Dir() string {
	return c.dir
}

func (c Command) Env() map[string]string {
	out := make(map[string]string, len(c.env))
	for k, v := range c.env {
		out[k] = v
	}
	return out
}

// Environ overlays the command env on base, replacing keys already present.
func (c Command) Environ(base []string) []string {
	if len(c.env) == 0 {
		return append([]string(nil), base...)
	}
	out := make([]string, 0, len(base)+len(c.env))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := c.env[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(c.env))
	for k := range c.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+c.env[k])
	}
	return out
}

func (c Command) String() string {
	return strings.Join(c.argv, " ")
}
