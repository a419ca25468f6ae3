package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/benchgate/benchgate/internal/reporting"
)

// VerdictFailureError indicates that validation ran to completion but the
// verdict failed. Code is the exit code the verdict calls for.
type VerdictFailureError struct {
	Code    int
	Message string
}

func (e *VerdictFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var verdictErr *VerdictFailureError
		if errors.As(err, &verdictErr) {
			os.Exit(verdictErr.Code)
		}

		// All other errors are configuration/runtime errors
		os.Exit(reporting.ExitError)
	}
}
