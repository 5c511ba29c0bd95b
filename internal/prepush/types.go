package prepush

// Verdict is the outcome of a single check.
type Verdict string

// Supported verdicts.
const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
	VerdictWarn Verdict = "warn"
)

// Check names in execution order.
const (
	CheckNameRepository = "repository"
	CheckNameRemote     = "remote"
	CheckNameBranch     = "branch"
	CheckNameConflicts  = "conflicts"
	CheckNameIgnoreFile = "ignore-file"
	CheckNameSecrets    = "secrets"
	CheckNameLargeFiles = "large-files"
)

// CheckResult is the immutable outcome of one named check.
type CheckResult struct {
	Name    string   `json:"name" yaml:"name"`
	Verdict Verdict  `json:"verdict" yaml:"verdict"`
	Detail  string   `json:"detail,omitempty" yaml:"detail,omitempty"`
	Lines   []string `json:"lines,omitempty" yaml:"lines,omitempty"`
}

// RunReport collects check results in execution order.
type RunReport struct {
	RunIdentifier string
	Checks        []CheckResult
}

// FailCount returns the number of failed checks.
func (report RunReport) FailCount() int {
	return report.countVerdict(VerdictFail)
}

// WarnCount returns the number of checks that finished with a warning.
func (report RunReport) WarnCount() int {
	return report.countVerdict(VerdictWarn)
}

// Passed reports whether no check failed.
func (report RunReport) Passed() bool {
	return report.FailCount() == 0
}

func (report RunReport) countVerdict(verdict Verdict) int {
	count := 0
	for _, result := range report.Checks {
		if result.Verdict == verdict {
			count++
		}
	}
	return count
}

// ResultObserver receives each check result as soon as it is produced.
type ResultObserver func(result CheckResult)

// CommandOptions captures the resolved parameters for a single run.
type CommandOptions struct {
	RunIdentifier                string
	RepositoryPath               string
	RemoteName                   string
	SecretsFileName              string
	IgnoreFileName               string
	ScannerConfigurationFileName string
	TestPathPattern              string
	ExceptionFiles               []string
	LargeFileThresholdBytes      int64
	ExcludedDirectories          []string
}
