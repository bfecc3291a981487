package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	actionin "devlaunch/internal/modules/action/port/in"
	"devlaunch/internal/modules/doctor/domain"
	"devlaunch/internal/modules/doctor/dto"
	doctorout "devlaunch/internal/modules/doctor/port/out"
	pluginin "devlaunch/internal/modules/plugin/port/in"
	apperrors "devlaunch/internal/platform/errors"
)

type Options struct {
	Root          string
	RequiredTools []string
	RequiredFiles []string
	Ports         []int
}

type Dependencies struct {
	Tools   doctorout.ToolLocator
	Files   doctorout.FileChecker
	Ports   doctorout.PortProbe
	Actions actionin.Usecase
	Plugins pluginin.Usecase
	Logger  hclog.Logger
}

type DoctorService struct {
	opts Options
	deps Dependencies
}

func NewDoctorService(opts Options, deps Dependencies) *DoctorService {
	if deps.Logger == nil {
		deps.Logger = hclog.NewNullLogger()
	}
	deps.Logger = deps.Logger.Named("doctor")
	return &DoctorService{opts: opts, deps: deps}
}

func (s *DoctorService) SelfCheck(ctx context.Context) (dto.Report, error) {
	report := domain.Report{}
	s.checkTools(&report)
	s.checkFiles(&report)
	s.checkActions(ctx, &report)
	s.checkPlugins(ctx, &report)
	s.checkPorts(ctx, &report)
	if err := ctx.Err(); err != nil {
		return dto.Report{}, fmt.Errorf("self-check: %w", err)
	}
	s.deps.Logger.Info("self-check finished", "ok", report.OK(), "checks", len(report.Checks))
	return toDTO(report), nil
}

func (s *DoctorService) checkTools(report *domain.Report) {
	for _, spec := range s.opts.RequiredTools {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		name, path, ok := s.deps.Tools.Lookup(spec)
		if !ok {
			err := fmt.Errorf("%w: none of %s found in PATH", apperrors.ErrConfigurationMissing, strings.ReplaceAll(spec, "|", ", "))
			report.Add(domain.Check{Group: "tool", Name: spec, Status: domain.StatusFail, Detail: err.Error()})
			continue
		}
		detail := path
		if name != spec {
			detail = name + " at " + path
		}
		report.Add(domain.Check{Group: "tool", Name: spec, Status: domain.StatusOK, Detail: detail})
	}
}

func (s *DoctorService) checkFiles(report *domain.Report) {
	for _, rel := range s.opts.RequiredFiles {
		rel = strings.TrimSpace(rel)
		if rel == "" {
			continue
		}
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.opts.Root, rel)
		}
		if s.deps.Files.Exists(path) {
			report.Add(domain.Check{Group: "file", Name: rel, Status: domain.StatusOK})
			continue
		}
		report.Add(domain.Check{Group: "file", Name: rel, Status: domain.StatusFail, Detail: "not found in project root"})
	}
}

func (s *DoctorService) checkActions(ctx context.Context, report *domain.Report) {
	if s.deps.Actions == nil {
		return
	}
	actions, err := s.deps.Actions.List(ctx)
	if err != nil {
		report.Add(domain.Check{Group: "actions", Name: "table", Status: domain.StatusFail, Detail: err.Error()})
		return
	}
	report.Add(domain.Check{Group: "actions", Name: "table", Status: domain.StatusOK, Detail: fmt.Sprintf("%d actions", len(actions))})
}

func (s *DoctorService) checkPlugins(ctx context.Context, report *domain.Report) {
	if s.deps.Plugins == nil {
		return
	}
	results, err := s.deps.Plugins.Doctor(ctx)
	if err != nil {
		report.Add(domain.Check{Group: "plugin", Name: "manifests", Status: domain.StatusFail, Detail: err.Error()})
		return
	}
	for _, r := range results {
		switch {
		case r.Error != "":
			report.Add(domain.Check{Group: "plugin", Name: r.Name, Status: domain.StatusFail, Detail: r.Error})
		case r.LifecycleOK:
			report.Add(domain.Check{Group: "plugin", Name: r.Name, Status: domain.StatusOK, Detail: "handshake ok"})
		default:
			report.Add(domain.Check{Group: "plugin", Name: r.Name, Status: domain.StatusWarn, Detail: "disabled"})
		}
	}
}

func (s *DoctorService) checkPorts(ctx context.Context, report *domain.Report) {
	if len(s.opts.Ports) == 0 || s.deps.Ports == nil {
		return
	}
	listeners, err := s.deps.Ports.Listening(ctx)
	if err != nil {
		s.deps.Logger.Warn("port probe failed", "error", err)
		for _, port := range s.opts.Ports {
			report.Add(domain.Check{Group: "port", Name: strconv.Itoa(port), Status: domain.StatusWarn, Detail: "probe unavailable"})
		}
		return
	}
	byPort := make(map[int]doctorout.Listener, len(listeners))
	for _, l := range listeners {
		if _, seen := byPort[l.Port]; !seen {
			byPort[l.Port] = l
		}
	}
	for _, port := range s.opts.Ports {
		l, busy := byPort[port]
		if !busy {
			report.Add(domain.Check{Group: "port", Name: strconv.Itoa(port), Status: domain.StatusOK, Detail: "free"})
			continue
		}
		detail := "in use"
		if l.Process != "" {
			detail = fmt.Sprintf("in use by %s (pid %d)", l.Process, l.PID)
		} else if l.PID > 0 {
			detail = fmt.Sprintf("in use by pid %d", l.PID)
		}
		report.Add(domain.Check{Group: "port", Name: strconv.Itoa(port), Status: domain.StatusWarn, Detail: detail})
	}
}

func toDTO(report domain.Report) dto.Report {
	out := dto.Report{OK: report.OK(), Failures: report.Failures()}
	for _, c := range report.Checks {
		out.Checks = append(out.Checks, dto.CheckResult{
			Group:  c.Group,
			Name:   c.Name,
			Status: string(c.Status),
			Detail: c.Detail,
			Line:   c.String(),
		})
	}
	return out
}
