package domain

import "fmt"

type Status string

const (
	StatusOK   Status = "OK"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
)

type Check struct {
	Group  string
	Name   string
	Status Status
	Detail string
}

func (c Check) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("[%s] %s: %s", c.Status, c.Group, c.Name)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", c.Status, c.Group, c.Name, c.Detail)
}

// Report is healthy when no check failed. Warnings never fail a report.
type Report struct {
	Checks []Check
}

func (r *Report) Add(c Check) {
	r.Checks = append(r.Checks, c)
}

func (r Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

func (r Report) Failures() []string {
	out := []string{}
	for _, c := range r.Checks {
		if c.Status != StatusFail {
			continue
		}
		msg := c.Group + ": " + c.Name
		if c.Detail != "" {
			msg += ": " + c.Detail
		}
		out = append(out, msg)
	}
	return out
}
