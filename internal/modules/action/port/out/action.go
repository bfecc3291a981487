package out

import (
	"context"

	"devlaunch/internal/modules/action/domain"
)

// Source contributes actions to the table. Sources are merged in order and
// the first action registered under a key wins.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]domain.Action, error)
}

type ToolLocator interface {
	Lookup(spec string) (string, bool)
}

type FileChecker interface {
	Exists(path string) bool
}
