package prepush

import "fmt"

const (
	repositoryRequiredTemplateConstant      = "not inside a git repository: %s"
	repositoryRequiredCauseTemplateConstant = "not inside a git repository: %s: %v"
	checksFailedTemplateConstant            = "%d check(s) failed"
	scannerConfigurationTemplateConstant    = "write scanner configuration %s: %v"
)

// RepositoryRequiredError aborts a run whose target directory is not inside a git work tree.
type RepositoryRequiredError struct {
	Path  string
	Cause error
}

// Error describes the missing repository.
func (requiredError RepositoryRequiredError) Error() string {
	if requiredError.Cause != nil {
		return fmt.Sprintf(repositoryRequiredCauseTemplateConstant, requiredError.Path, requiredError.Cause)
	}
	return fmt.Sprintf(repositoryRequiredTemplateConstant, requiredError.Path)
}

// Unwrap exposes the probe failure, if any.
func (requiredError RepositoryRequiredError) Unwrap() error {
	return requiredError.Cause
}

// ChecksFailedError reports a completed run with at least one failed check.
type ChecksFailedError struct {
	FailCount int
}

// Error renders the same text as the report summary line.
func (failedError ChecksFailedError) Error() string {
	return fmt.Sprintf(checksFailedTemplateConstant, failedError.FailCount)
}

// ScannerConfigurationError aborts a run whose scanner configuration could not be written.
type ScannerConfigurationError struct {
	Path  string
	Cause error
}

// Error describes the write failure.
func (configurationError ScannerConfigurationError) Error() string {
	return fmt.Sprintf(scannerConfigurationTemplateConstant, configurationError.Path, configurationError.Cause)
}

// Unwrap exposes the write failure.
func (configurationError ScannerConfigurationError) Unwrap() error {
	return configurationError.Cause
}
