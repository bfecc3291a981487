package dto

type CheckResult struct {
	Group  string
	Name   string
	Status string
	Detail string
	Line   string
}

type Report struct {
	OK       bool
	Checks   []CheckResult
	Failures []string
}
