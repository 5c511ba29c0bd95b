package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/pushguard/internal/execshell"
)

const (
	gitleaksDetectSubcommandConstant   = "detect"
	gitleaksSourceFlagConstant         = "--source"
	gitleaksConfigFlagConstant         = "--config"
	gitleaksReportFormatFlagConstant   = "--report-format"
	gitleaksReportFormatJSONConstant   = "json"
	gitleaksReportPathFlagConstant     = "--report-path"
	gitleaksStandardOutputPathConstant = "-"
	gitleaksNoBannerFlagConstant       = "--no-banner"
	gitleaksRedactFlagConstant         = "--redact"
	gitleaksExitCodeFlagConstant       = "--exit-code"
	gitleaksZeroExitCodeConstant       = "0"
	gitleaksNoGitFlagConstant          = "--no-git"

	scannerNotConfiguredMessageConstant  = "secret scanner executor not configured"
	reportUnavailableMessageConstant     = "scanner report unavailable"
	reportEmptyMessageConstant           = "scanner produced no report"
	reportDecodeErrorTemplateConstant    = "%w: decode report: %v"
	reportExecutionErrorTemplateConstant = "%w: %w"
	reportEmptyErrorTemplateConstant     = "%w: %s"
	scanPathErrorTemplateConstant        = "%w: resolve %s: %v"
	findingLocationTemplateConstant      = "%s:%d [%s]"
)

// Errors surfaced by Scanner.
var (
	ErrScannerNotConfigured = errors.New(scannerNotConfiguredMessageConstant)
	// ErrReportUnavailable marks a scan whose report is missing or unreadable.
	ErrReportUnavailable = errors.New(reportUnavailableMessageConstant)
)

// ScanMode selects what gitleaks inspects.
type ScanMode string

// Supported scan modes.
const (
	// ScanModeHistory scans every commit reachable in the repository.
	ScanModeHistory ScanMode = "history"
	// ScanModeDirectory scans the files currently on disk.
	ScanModeDirectory ScanMode = "directory"
)

// Finding is a single leak reported by the scanner.
type Finding struct {
	File        string `json:"File" yaml:"file"`
	Line        int    `json:"StartLine" yaml:"line"`
	RuleID      string `json:"RuleID" yaml:"rule_id"`
	Description string `json:"Description" yaml:"description"`
	Commit      string `json:"Commit" yaml:"commit,omitempty"`
}

// Location renders the finding as file:line [ruleID].
func (finding Finding) Location() string {
	return fmt.Sprintf(findingLocationTemplateConstant, finding.File, finding.Line, finding.RuleID)
}

// ScanReport holds every finding of one scan.
type ScanReport struct {
	Findings []Finding
}

// GitleaksExecutor runs gitleaks.
type GitleaksExecutor interface {
	ExecuteGitleaks(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Scanner runs gitleaks and decodes its JSON report from standard output.
type Scanner struct {
	executor GitleaksExecutor
	mode     ScanMode
}

// NewScanner constructs a Scanner.
func NewScanner(executor GitleaksExecutor, mode ScanMode) (*Scanner, error) {
	if executor == nil {
		return nil, ErrScannerNotConfigured
	}
	if mode != ScanModeDirectory {
		mode = ScanModeHistory
	}
	return &Scanner{executor: executor, mode: mode}, nil
}

// Scan inspects targetDirectory using configurationFile. Any failure to obtain a decodable report wraps
// ErrReportUnavailable; execution failures also keep their cause so a missing binary matches exec.ErrNotFound.
// Relative paths are resolved against the process working directory before gitleaks runs inside targetDirectory.
func (scanner *Scanner) Scan(executionContext context.Context, targetDirectory string, configurationFile string) (ScanReport, error) {
	absoluteTargetDirectory, targetError := filepath.Abs(targetDirectory)
	if targetError != nil {
		return ScanReport{}, fmt.Errorf(scanPathErrorTemplateConstant, ErrReportUnavailable, targetDirectory, targetError)
	}
	absoluteConfigurationFile, configurationError := filepath.Abs(configurationFile)
	if configurationError != nil {
		return ScanReport{}, fmt.Errorf(scanPathErrorTemplateConstant, ErrReportUnavailable, configurationFile, configurationError)
	}

	arguments := []string{
		gitleaksDetectSubcommandConstant,
		gitleaksSourceFlagConstant, absoluteTargetDirectory,
		gitleaksConfigFlagConstant, absoluteConfigurationFile,
		gitleaksReportFormatFlagConstant, gitleaksReportFormatJSONConstant,
		gitleaksReportPathFlagConstant, gitleaksStandardOutputPathConstant,
		gitleaksNoBannerFlagConstant,
		gitleaksRedactFlagConstant,
		gitleaksExitCodeFlagConstant, gitleaksZeroExitCodeConstant,
	}
	if scanner.mode == ScanModeDirectory {
		arguments = append(arguments, gitleaksNoGitFlagConstant)
	}

	result, executionError := scanner.executor.ExecuteGitleaks(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: absoluteTargetDirectory,
	})
	if executionError != nil {
		return ScanReport{}, fmt.Errorf(reportExecutionErrorTemplateConstant, ErrReportUnavailable, executionError)
	}

	return DecodeReport(result.StandardOutput)
}

// DecodeReport parses a gitleaks JSON report.
func DecodeReport(rawReport string) (ScanReport, error) {
	trimmedReport := strings.TrimSpace(rawReport)
	if len(trimmedReport) == 0 {
		return ScanReport{}, fmt.Errorf(reportEmptyErrorTemplateConstant, ErrReportUnavailable, reportEmptyMessageConstant)
	}

	var findings []Finding
	if decodeError := json.Unmarshal([]byte(trimmedReport), &findings); decodeError != nil {
		return ScanReport{}, fmt.Errorf(reportDecodeErrorTemplateConstant, ErrReportUnavailable, decodeError)
	}
	if findings == nil {
		findings = []Finding{}
	}
	return ScanReport{Findings: findings}, nil
}
