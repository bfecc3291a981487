package out

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"devlaunch/internal/platform/slug"
)

const rootCategory = "scripts"

// suffixOrder fixes option order inside an action.
var suffixOrder = []string{".ps1", ".bat", ".cmd", ".sh"}

var suffixLabels = map[string]string{
	".ps1": "PowerShell",
	".bat": "CMD",
	".cmd": "CMD",
	".sh":  "Bash",
}

type DiscoveryOptions struct {
	Denylist          []string
	DestructiveTokens []string
	NestedCategories  []string
}

// DiscoveredScript is a script file grouped under an action.
type DiscoveredScript struct {
	RelPath string
	Suffix  string
	Label   string
}

// DiscoveredAction groups the scripts sharing a category and label.
type DiscoveredAction struct {
	Key         string
	Label       string
	Category    string
	Destructive bool
	Scripts     []DiscoveredScript
}

// Discover walks fsys and groups runnable scripts into actions sorted by
// category then label. It reads directory entries only.
func Discover(fsys fs.FS, opts DiscoveryOptions) ([]DiscoveredAction, error) {
	type groupKey struct{ category, label string }
	grouped := map[groupKey][]DiscoveredScript{}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		suffix := strings.ToLower(path.Ext(p))
		if _, ok := suffixLabels[suffix]; !ok {
			return nil
		}
		if denied(p, opts.Denylist) {
			return nil
		}
		name := path.Base(p)
		key := groupKey{category: categoryOf(p, opts.NestedCategories), label: slug.Words(name[:len(name)-len(suffix)])}
		if key.label == "" {
			return nil
		}
		grouped[key] = append(grouped[key], DiscoveredScript{RelPath: p, Suffix: suffix, Label: suffixLabels[suffix]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]DiscoveredAction, 0, len(grouped))
	for key, scripts := range grouped {
		ordered := make([]DiscoveredScript, 0, len(scripts))
		for _, suffix := range suffixOrder {
			bucket := []DiscoveredScript{}
			for _, s := range scripts {
				if s.Suffix == suffix {
					bucket = append(bucket, s)
				}
			}
			sort.Slice(bucket, func(i, j int) bool { return bucket[i].RelPath < bucket[j].RelPath })
			ordered = append(ordered, bucket...)
		}
		canonical := ordered[0].RelPath
		out = append(out, DiscoveredAction{
			Key:         canonical,
			Label:       key.label,
			Category:    key.category,
			Destructive: containsToken(canonical, opts.DestructiveTokens),
			Scripts:     ordered,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// ScriptArgv builds the interpreter invocation for a script by suffix.
func ScriptArgv(suffix, scriptPath string) []string {
	switch suffix {
	case ".ps1":
		return []string{"powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-File", scriptPath}
	case ".bat", ".cmd":
		return []string{"cmd", "/c", scriptPath}
	case ".sh":
		return []string{"bash", scriptPath}
	default:
		return nil
	}
}

func categoryOf(rel string, nested []string) string {
	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		return rootCategory
	}
	if len(parts) >= 3 {
		for _, n := range nested {
			if strings.EqualFold(parts[0], n) {
				return parts[0] + "/" + parts[1]
			}
		}
	}
	return parts[0]
}

func denied(rel string, denylist []string) bool {
	low := strings.ToLower(rel)
	for _, d := range denylist {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" && strings.HasSuffix(low, d) {
			return true
		}
	}
	return false
}

func containsToken(rel string, tokens []string) bool {
	low := strings.ToLower(rel)
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(low, t) {
			return true
		}
	}
	return false
}
