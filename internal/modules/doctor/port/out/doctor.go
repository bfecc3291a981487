package out

import "context"

type ToolLocator interface {
	Lookup(spec string) (name string, path string, ok bool)
}

type FileChecker interface {
	Exists(path string) bool
}

type Listener struct {
	Port    int
	PID     int
	Process string
}

type PortProbe interface {
	Listening(ctx context.Context) ([]Listener, error)
}
