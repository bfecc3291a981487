package toolpath

import (
	"os/exec"
	"strings"
)

// Lookup resolves the first available executable of a "a|b" alternative list.
// It returns the matched name and its absolute path.
func Lookup(spec string) (string, string, bool) {
	for _, candidate := range Alternatives(spec) {
		if path, err := exec.LookPath(candidate); err == nil {
			return candidate, path, true
		}
	}
	return "", "", false
}

func Alternatives(spec string) []string {
	out := []string{}
	for _, part := range strings.Split(spec, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
