package out

import (
	"os"

	actionout "devlaunch/internal/modules/action/port/out"
	"devlaunch/internal/platform/toolpath"
)

type PathToolLocator struct{}

func NewPathToolLocator() actionout.ToolLocator {
	return PathToolLocator{}
}

func (PathToolLocator) Lookup(spec string) (string, bool) {
	_, path, ok := toolpath.Lookup(spec)
	return path, ok
}

type OSFileChecker struct{}

func NewOSFileChecker() actionout.FileChecker {
	return OSFileChecker{}
}

func (OSFileChecker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
