package in

import (
	"context"
	"fmt"
	"io"

	"devlaunch/internal/modules/doctor/dto"
	doctorin "devlaunch/internal/modules/doctor/port/in"
)

type CLIHandler struct {
	usecase doctorin.Usecase
}

func NewCLIHandler(usecase doctorin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Report(ctx context.Context) (dto.Report, error) {
	return h.usecase.SelfCheck(ctx)
}

// SelfCheck prints one line per check followed by the summary and returns
// the process exit code: 0 when healthy, 1 otherwise.
func (h CLIHandler) SelfCheck(ctx context.Context, w io.Writer) (int, error) {
	report, err := h.usecase.SelfCheck(ctx)
	if err != nil {
		return 1, err
	}
	for _, c := range report.Checks {
		fmt.Fprintln(w, c.Line)
	}
	if !report.OK {
		fmt.Fprintln(w, "SELF-CHECK: FAIL")
		for _, f := range report.Failures {
			fmt.Fprintf(w, "- %s\n", f)
		}
		return 1, nil
	}
	fmt.Fprintln(w, "SELF-CHECK: OK")
	return 0, nil
}
