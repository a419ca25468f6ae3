package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// FormatGitHubComment formats a verdict as a markdown comment for pull requests.
func FormatGitHubComment(v *models.Verdict) string {
	var b strings.Builder

	title := "Benchmark Verdict"
	if v.Suite != "" {
		title = fmt.Sprintf("Benchmark Verdict: %s (%s)", v.Suite, v.Mode)
	}
	b.WriteString(fmt.Sprintf("## 🧪 %s\n\n", title))

	statusIcon := "✅ Passed"
	if !v.Passed() {
		statusIcon = "❌ Failed"
	}
	b.WriteString(fmt.Sprintf("**Status:** %s | **Coverage:** %.1f%% (%d/%d)",
		statusIcon, v.Coverage.Ratio*100, v.Coverage.Passed, v.Coverage.Considered))
	if v.Coverage.Threshold != nil {
		b.WriteString(fmt.Sprintf(" | **Minimum:** %.1f%%", *v.Coverage.Threshold*100))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("- **Regressions:** %d\n", len(v.Regressions)))
	b.WriteString(fmt.Sprintf("- **Newly passing:** %d\n", len(v.NewPasses)))
	if len(v.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("- **Skipped:** %d\n", len(v.Skipped)))
	}
	if len(v.AllowedQuirks) > 0 {
		b.WriteString(fmt.Sprintf("- **Allowed quirks:** %d\n", len(v.AllowedQuirks)))
	}
	b.WriteString("\n")

	writeDiffTable(&b, "### ❌ Regressions", v.Regressions)
	writeDiffTable(&b, "### ⚠️ Below Metric Floor", v.Demoted)
	writeDiffTable(&b, "### ⚠️ Allowed Quirks", v.AllowedQuirks)
	writeDiffTable(&b, "### ✅ Newly Passing", v.NewPasses)

	if len(v.Skipped) > 0 {
		b.WriteString("<details><summary>Skipped models</summary>\n\n")
		for _, m := range v.Skipped {
			b.WriteString(fmt.Sprintf("- `%s`\n", m))
		}
		b.WriteString("\n</details>\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(fmt.Sprintf("**Run:** `%s` | **Mode:** %s | **Rows:** %d\n", v.RunID, v.Mode, len(v.Rows)))

	return b.String()
}

func writeDiffTable(b *strings.Builder, heading string, diffs []models.ModelDiff) {
	if len(diffs) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	b.WriteString("| Model | Baseline | Current | Metric | Diagnostic |\n")
	b.WriteString("|-------|----------|---------|--------|------------|\n")
	for _, d := range diffs {
		b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s |\n",
			d.Model, orDash(string(d.Baseline)), d.Current, formatMetric(d.Metric), escapeCell(d.Diagnostic)))
	}
	b.WriteString("\n")
}

// escapeCell keeps a diagnostic inside one markdown table cell.
func escapeCell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderHTML renders the GitHub comment markdown as a standalone HTML page.
func RenderHTML(v *models.Verdict) ([]byte, error) {
	// Unsafe keeps the <details> wrapper. Diagnostics are escaped by
	// escapeCell and model names sit in code spans.
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(FormatGitHubComment(v)), &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	page.WriteString(fmt.Sprintf("<title>Verdict %s</title>\n", v.RunID))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
