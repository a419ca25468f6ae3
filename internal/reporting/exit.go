package reporting

import "github.com/benchgate/benchgate/internal/models"

// Process exit codes. Only cmd/benchgate calls os.Exit; everything else
// returns one of these.
const (
	ExitPass       = 0 // Verdict passed
	ExitRegression = 1 // One or more baseline regressions
	ExitError      = 2 // Configuration or runtime error
	ExitCoverage   = 3 // Coverage below the minimum
)

// ExitCode maps a verdict to its exit code. Regressions win over a coverage
// shortfall.
func ExitCode(v *models.Verdict) int {
	switch {
	case v == nil:
		return ExitError
	case v.HasFailure(models.FailureRegression):
		return ExitRegression
	case v.HasFailure(models.FailureCoverage):
		return ExitCoverage
	case v.Overall != models.OutcomePass:
		return ExitError
	default:
		return ExitPass
	}
}
