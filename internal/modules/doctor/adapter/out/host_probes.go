package out

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	doctorout "devlaunch/internal/modules/doctor/port/out"
	"devlaunch/internal/platform/toolpath"
)

const statusListen = "LISTEN"

type PathToolLocator struct{}

func NewPathToolLocator() doctorout.ToolLocator {
	return PathToolLocator{}
}

func (PathToolLocator) Lookup(spec string) (string, string, bool) {
	return toolpath.Lookup(spec)
}

type OSFileChecker struct{}

func NewOSFileChecker() doctorout.FileChecker {
	return OSFileChecker{}
}

func (OSFileChecker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GopsutilPortProbe lists TCP sockets in LISTEN state on every address
// family. Process names are best effort; sockets owned by other users may
// report no pid.
type GopsutilPortProbe struct{}

func NewGopsutilPortProbe() doctorout.PortProbe {
	return GopsutilPortProbe{}
}

func (GopsutilPortProbe) Listening(ctx context.Context) ([]doctorout.Listener, error) {
	conns, err := net.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	names := map[int32]string{}
	out := []doctorout.Listener{}
	for _, c := range conns {
		if c.Status != statusListen {
			continue
		}
		l := doctorout.Listener{Port: int(c.Laddr.Port), PID: int(c.Pid)}
		if c.Pid > 0 {
			name, ok := names[c.Pid]
			if !ok {
				name = processName(ctx, c.Pid)
				names[c.Pid] = name
			}
			l.Process = name
		}
		out = append(out, l)
	}
	return out, nil
}

func processName(ctx context.Context, pid int32) string {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ""
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ""
	}
	return name
}
