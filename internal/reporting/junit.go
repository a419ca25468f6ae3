package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/benchgate/benchgate/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one validated (suite, mode) table.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one model row.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a regression or accuracy failure.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a model that crashed, hung or never reported.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a row as skipped.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a verdict to JUnit XML. Each row becomes a test
// case named after the model; failures follow the effective status.
func ConvertToJUnit(v *models.Verdict) *JUnitTestSuites {
	name := string(v.Mode)
	if v.Suite != "" {
		name = v.Suite + "/" + name
	}

	suite := JUnitTestSuite{
		Name:      name,
		Tests:     len(v.Rows),
		Timestamp: v.CreatedAt.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "run_id", Value: v.RunID},
			{Name: "mode", Value: string(v.Mode)},
			{Name: "overall", Value: string(v.Overall)},
			{Name: "coverage", Value: fmt.Sprintf("%.4f", v.Coverage.Ratio)},
		},
	}
	if v.Coverage.Threshold != nil {
		suite.Properties = append(suite.Properties, JUnitProperty{Name: "min_coverage", Value: fmt.Sprintf("%.4f", *v.Coverage.Threshold)})
	}

	regressed := make(map[string]models.ModelDiff, len(v.Regressions))
	for _, d := range v.Regressions {
		regressed[d.Model] = d
	}

	for _, r := range v.Rows {
		tc := JUnitTestCase{Name: r.Model, Classname: name}
		switch {
		case r.Effective == models.StatusPass:
		case r.Effective == models.StatusSkipped:
			tc.Skipped = &JUnitSkipped{Message: r.Diagnostic}
			suite.Skipped++
		case isRegression(regressed, r.Model):
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: %s -> %s", r.Model, regressed[r.Model].Baseline, r.Effective),
				Type:    "Regression",
				Body:    r.Diagnostic,
			}
			suite.Failures++
		case r.Effective == models.StatusFailAccuracy:
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: %s", r.Model, r.Effective),
				Type:    "AccuracyFailure",
				Body:    r.Diagnostic,
			}
			suite.Failures++
		default:
			tc.Error = buildError(r)
			suite.Errors++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func isRegression(regressed map[string]models.ModelDiff, model string) bool {
	_, ok := regressed[model]
	return ok
}

func buildError(r models.VerdictRow) *JUnitError {
	msg := r.Diagnostic
	if msg == "" {
		msg = string(r.Effective)
	}
	errType := "RunFailure"
	if r.Effective == models.StatusTimeout {
		errType = "Timeout"
	}
	return &JUnitError{
		Message: msg,
		Type:    errType,
	}
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(v *models.Verdict, path string) error {
	suites := ConvertToJUnit(v)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
