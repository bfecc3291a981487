package in_test

import (
	"bytes"
	"context"
	"testing"

	doctorin "devlaunch/internal/modules/doctor/adapter/in"
	"devlaunch/internal/modules/doctor/dto"
)

type fakeUsecase struct {
	report dto.Report
}

func (f fakeUsecase) SelfCheck(context.Context) (dto.Report, error) {
	return f.report, nil
}

func TestSelfCheckPrintsSummary(t *testing.T) {
	t.Parallel()
	healthy := doctorin.NewCLIHandler(fakeUsecase{report: dto.Report{OK: true, Checks: []dto.CheckResult{{Line: "[OK] tool: git"}}}})
	var out bytes.Buffer
	code, err := healthy.SelfCheck(context.Background(), &out)
	if err != nil || code != 0 {
		t.Fatalf("expected exit 0, got %d err=%v", code, err)
	}
	if out.String() != "[OK] tool: git\nSELF-CHECK: OK\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}

	failing := doctorin.NewCLIHandler(fakeUsecase{report: dto.Report{Failures: []string{"file: .env.example: not found in project root"}}})
	out.Reset()
	code, err = failing.SelfCheck(context.Background(), &out)
	if err != nil || code != 1 {
		t.Fatalf("expected exit 1, got %d err=%v", code, err)
	}
	if out.String() != "SELF-CHECK: FAIL\n- file: .env.example: not found in project root\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}
