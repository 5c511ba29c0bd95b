package prepush

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects how the report is written.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

const (
	passLabelConstant             = "[PASS]"
	failLabelConstant             = "[FAIL]"
	warnLabelConstant             = "[WARN]"
	checkLineTemplateConstant     = "%s %s: %s\n"
	checkLineBareTemplateConstant = "%s %s\n"
	detailLineTemplateConstant    = "    %s\n"
	summaryPassedMessageConstant  = "All checks passed"
	summaryLineTemplateConstant   = "%s\n"
	jsonIndentConstant            = "  "
	yamlIndentConstant            = 2
	unknownFormatTemplateConstant = "unsupported output format %q"
)

// OutputFormats lists the accepted output formats in display order.
func OutputFormats() []string {
	return []string{string(OutputFormatText), string(OutputFormatJSON), string(OutputFormatYAML)}
}

// ParseOutputFormat validates a textual output format.
func ParseOutputFormat(value string) (OutputFormat, error) {
	normalized := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return normalized, nil
	default:
		return "", fmt.Errorf(unknownFormatTemplateConstant, value)
	}
}

type reportDocument struct {
	RunIdentifier string        `json:"run_id" yaml:"run_id"`
	Passed        bool          `json:"passed" yaml:"passed"`
	FailCount     int           `json:"fail_count" yaml:"fail_count"`
	WarnCount     int           `json:"warn_count" yaml:"warn_count"`
	Checks        []CheckResult `json:"checks" yaml:"checks"`
}

// ReportRenderer writes check results as they arrive and the summary once the run completes.
// Machine-readable formats are written as a single document by RenderSummary.
type ReportRenderer struct {
	writer     io.Writer
	format     OutputFormat
	labels     map[Verdict]string
	firstError error
}

// NewReportRenderer constructs a renderer. colorize enables ANSI colors on the text verdict labels.
func NewReportRenderer(writer io.Writer, format OutputFormat, colorize bool) *ReportRenderer {
	return &ReportRenderer{
		writer: writer,
		format: format,
		labels: map[Verdict]string{
			VerdictPass: paint(color.New(color.FgGreen, color.Bold), passLabelConstant, colorize),
			VerdictFail: paint(color.New(color.FgRed, color.Bold), failLabelConstant, colorize),
			VerdictWarn: paint(color.New(color.FgYellow, color.Bold), warnLabelConstant, colorize),
		},
	}
}

func paint(painter *color.Color, label string, colorize bool) string {
	if colorize {
		painter.EnableColor()
	} else {
		painter.DisableColor()
	}
	return painter.Sprint(label)
}

// RenderCheck writes a single result in text mode. It satisfies ResultObserver.
func (renderer *ReportRenderer) RenderCheck(result CheckResult) {
	if renderer.format != OutputFormatText {
		return
	}

	label := renderer.labels[result.Verdict]
	if len(result.Detail) == 0 {
		renderer.write(fmt.Sprintf(checkLineBareTemplateConstant, label, result.Name))
	} else {
		renderer.write(fmt.Sprintf(checkLineTemplateConstant, label, result.Name, result.Detail))
	}
	for _, line := range result.Lines {
		renderer.write(fmt.Sprintf(detailLineTemplateConstant, line))
	}
}

// RenderSummary writes the summary line in text mode or the whole report otherwise.
// It returns the first write error seen during the run.
func (renderer *ReportRenderer) RenderSummary(report RunReport) error {
	switch renderer.format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(renderer.writer)
		encoder.SetIndent("", jsonIndentConstant)
		renderer.record(encoder.Encode(newReportDocument(report)))
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(renderer.writer)
		encoder.SetIndent(yamlIndentConstant)
		renderer.record(encoder.Encode(newReportDocument(report)))
		renderer.record(encoder.Close())
	default:
		renderer.write(fmt.Sprintf(summaryLineTemplateConstant, SummaryLine(report)))
	}
	return renderer.firstError
}

// SummaryLine returns the final line of a text report.
func SummaryLine(report RunReport) string {
	if report.Passed() {
		return summaryPassedMessageConstant
	}
	return ChecksFailedError{FailCount: report.FailCount()}.Error()
}

func newReportDocument(report RunReport) reportDocument {
	checks := report.Checks
	if checks == nil {
		checks = []CheckResult{}
	}
	return reportDocument{
		RunIdentifier: report.RunIdentifier,
		Passed:        report.Passed(),
		FailCount:     report.FailCount(),
		WarnCount:     report.WarnCount(),
		Checks:        checks,
	}
}

func (renderer *ReportRenderer) write(text string) {
	if renderer.firstError != nil {
		return
	}
	_, writeError := io.WriteString(renderer.writer, text)
	renderer.record(writeError)
}

func (renderer *ReportRenderer) record(candidate error) {
	if renderer.firstError == nil && candidate != nil {
		renderer.firstError = candidate
	}
}
