// Package reporting renders verdicts for people and CI systems and maps them
// to process exit codes.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/benchgate/benchgate/internal/models"
)

// OutputFormat selects the verdict rendering.
type OutputFormat string

const (
	OutputText          OutputFormat = "text"
	OutputJSON          OutputFormat = "json"
	OutputGitHubComment OutputFormat = "github-comment"
	OutputHTML          OutputFormat = "html"
)

// OutputFormats lists the accepted --format values.
var OutputFormats = []OutputFormat{OutputText, OutputJSON, OutputGitHubComment, OutputHTML}

// ParseOutputFormat accepts any value in OutputFormats; the empty string means
// text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	if s == "" {
		return OutputText, nil
	}
	for _, f := range OutputFormats {
		if string(f) == s {
			return f, nil
		}
	}
	names := make([]string, len(OutputFormats))
	for i, f := range OutputFormats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("%w: unknown format %q (want one of %s)", models.ErrInvalidInput, s, strings.Join(names, ", "))
}

// Write renders v to w in the given format and returns the exit code the
// verdict calls for.
func Write(w io.Writer, v *models.Verdict, format OutputFormat, opts TextOptions) (int, error) {
	var err error
	switch format {
	case OutputText, "":
		_, err = io.WriteString(w, FormatText(v, opts))
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case OutputGitHubComment:
		_, err = io.WriteString(w, FormatGitHubComment(v))
	case OutputHTML:
		var page []byte
		page, err = RenderHTML(v)
		if err == nil {
			_, err = w.Write(page)
		}
	default:
		return ExitError, fmt.Errorf("%w: unknown format %q", models.ErrInvalidInput, format)
	}
	if err != nil {
		return ExitError, fmt.Errorf("writing %s report: %w", format, err)
	}
	return ExitCode(v), nil
}
