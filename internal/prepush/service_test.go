package prepush_test

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/pushguard/internal/gitrepo"
	"github.com/temirov/pushguard/internal/largefiles"
	"github.com/temirov/pushguard/internal/prepush"
	"github.com/temirov/pushguard/internal/secrets"
)

const (
	testRepositoryPathConstant = "/workspace/repo"
	testRemoteURLConstant      = "git@github.com:temirov/pushguard.git"
	testRunIdentifierConstant  = "run-123"
)

type stubInspector struct {
	insideWorkTree bool
	workTreeError  error
	remoteURL      string
	remoteError    error
	branchName     string
	detached       bool
	branchError    error
	unmergedPaths  []string
	unmergedError  error
	calls          []string
}

func (inspector *stubInspector) IsInsideWorkTree(_ context.Context, repositoryPath string) (bool, error) {
	inspector.calls = append(inspector.calls, "work-tree "+repositoryPath)
	return inspector.insideWorkTree, inspector.workTreeError
}

func (inspector *stubInspector) GetRemoteURL(_ context.Context, _ string, remoteName string) (string, error) {
	inspector.calls = append(inspector.calls, "remote "+remoteName)
	return inspector.remoteURL, inspector.remoteError
}

func (inspector *stubInspector) GetCurrentBranch(context.Context, string) (string, bool, error) {
	inspector.calls = append(inspector.calls, "branch")
	return inspector.branchName, inspector.detached, inspector.branchError
}

func (inspector *stubInspector) ListUnmergedPaths(context.Context, string) ([]string, error) {
	inspector.calls = append(inspector.calls, "unmerged")
	return inspector.unmergedPaths, inspector.unmergedError
}

type stubScanner struct {
	report            secrets.ScanReport
	scanError         error
	targetDirectory   string
	configurationFile string
}

func (scanner *stubScanner) Scan(_ context.Context, targetDirectory string, configurationFile string) (secrets.ScanReport, error) {
	scanner.targetDirectory = targetDirectory
	scanner.configurationFile = configurationFile
	return scanner.report, scanner.scanError
}

type stubConfigurationWriter struct {
	writeError error
	path       string
	template   secrets.ConfigurationTemplate
}

func (writer *stubConfigurationWriter) Write(configurationPath string, template secrets.ConfigurationTemplate) error {
	writer.path = configurationPath
	writer.template = template
	return writer.writeError
}

type stubLargeFileFinder struct {
	files     []largefiles.OversizedFile
	findError error
	threshold int64
	excluded  []string
}

func (finder *stubLargeFileFinder) FindFilesOverSize(_ string, thresholdBytes int64, excludedDirectories []string) ([]largefiles.OversizedFile, error) {
	finder.threshold = thresholdBytes
	finder.excluded = excludedDirectories
	return finder.files, finder.findError
}

type serviceFixture struct {
	inspector  *stubInspector
	scanner    *stubScanner
	writer     *stubConfigurationWriter
	finder     *stubLargeFileFinder
	fileSystem afero.Fs
}

func newHealthyFixture(testInstance *testing.T) *serviceFixture {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testRepositoryPathConstant+"/.gitignore", []byte("node_modules/\n  .env  \n"), 0o644))
	return &serviceFixture{
		inspector:  &stubInspector{insideWorkTree: true, remoteURL: testRemoteURLConstant, branchName: "main"},
		scanner:    &stubScanner{report: secrets.ScanReport{Findings: []secrets.Finding{}}},
		writer:     &stubConfigurationWriter{},
		finder:     &stubLargeFileFinder{files: []largefiles.OversizedFile{}},
		fileSystem: fileSystem,
	}
}

func (fixture *serviceFixture) service(testInstance *testing.T, logger *zap.Logger) *prepush.Service {
	testInstance.Helper()
	service, serviceError := prepush.NewService(logger, fixture.inspector, fixture.scanner, fixture.writer, fixture.finder, fixture.fileSystem)
	require.NoError(testInstance, serviceError)
	return service
}

func defaultOptions() prepush.CommandOptions {
	defaults := prepush.DefaultCommandConfiguration()
	return prepush.CommandOptions{
		RunIdentifier:                testRunIdentifierConstant,
		RepositoryPath:               testRepositoryPathConstant,
		RemoteName:                   defaults.RemoteName,
		SecretsFileName:              defaults.SecretsFileName,
		IgnoreFileName:               defaults.IgnoreFileName,
		ScannerConfigurationFileName: defaults.ScannerConfigurationFileName,
		TestPathPattern:              defaults.TestPathPattern,
		ExceptionFiles:               []string{"docs/sample.env"},
		LargeFileThresholdBytes:      defaults.LargeFileThresholdBytes,
		ExcludedDirectories:          defaults.ExcludedDirectories,
	}
}

func findResult(testInstance *testing.T, report prepush.RunReport, name string) prepush.CheckResult {
	testInstance.Helper()
	for _, result := range report.Checks {
		if result.Name == name {
			return result
		}
	}
	require.FailNow(testInstance, fmt.Sprintf("check %s missing from report", name))
	return prepush.CheckResult{}
}

func TestServiceRunCleanRepository(testInstance *testing.T) {
	fixture := newHealthyFixture(testInstance)
	core, recordedLogs := observer.New(zapcore.DebugLevel)

	var observed []string
	report, runError := fixture.service(testInstance, zap.New(core)).Run(context.Background(), defaultOptions(), func(result prepush.CheckResult) {
		observed = append(observed, result.Name)
	})
	require.NoError(testInstance, runError)

	expectedOrder := []string{
		prepush.CheckNameRemote,
		prepush.CheckNameBranch,
		prepush.CheckNameConflicts,
		prepush.CheckNameIgnoreFile,
		prepush.CheckNameSecrets,
		prepush.CheckNameLargeFiles,
	}
	require.Len(testInstance, report.Checks, 6)
	require.Equal(testInstance, expectedOrder, observed)
	for index, result := range report.Checks {
		require.Equal(testInstance, expectedOrder[index], result.Name)
		require.Equal(testInstance, prepush.VerdictPass, result.Verdict, result.Detail)
	}
	require.Equal(testInstance, 0, report.FailCount())
	require.True(testInstance, report.Passed())
	require.Equal(testInstance, testRunIdentifierConstant, report.RunIdentifier)

	require.Equal(testInstance, "origin -> git@github.com:temirov/pushguard.git (temirov/pushguard)", findResult(testInstance, report, prepush.CheckNameRemote).Detail)
	require.Equal(testInstance, "main", findResult(testInstance, report, prepush.CheckNameBranch).Detail)
	require.Equal(testInstance, "no files over 50.0 MiB", findResult(testInstance, report, prepush.CheckNameLargeFiles).Detail)

	require.Equal(testInstance, testRepositoryPathConstant+"/.gitleaks.toml", fixture.writer.path)
	require.Equal(testInstance, ".env", fixture.writer.template.SecretsFileName)
	require.Equal(testInstance, []string{"docs/sample.env"}, fixture.writer.template.ExceptionFiles)
	require.Equal(testInstance, testRepositoryPathConstant, fixture.scanner.targetDirectory)
	require.Equal(testInstance, fixture.writer.path, fixture.scanner.configurationFile)
	require.Equal(testInstance, int64(52428800), fixture.finder.threshold)
	require.Equal(testInstance, []string{".git", "venv", ".venv", "env", "node_modules"}, fixture.finder.excluded)

	completedEntries := recordedLogs.FilterMessage("pre-push checks completed").All()
	require.Len(testInstance, completedEntries, 1)
	require.Equal(testInstance, testRunIdentifierConstant, completedEntries[0].ContextMap()["run_id"])
	require.Len(testInstance, recordedLogs.FilterMessage("check completed").All(), 6)
}

func TestServiceRunAbortsOutsideRepository(testInstance *testing.T) {
	testCases := []struct {
		name          string
		inside        bool
		lookupError   error
		expectedCause error
	}{
		{name: "not_a_work_tree"},
		{name: "work_tree_lookup_failure", lookupError: exec.ErrNotFound, expectedCause: exec.ErrNotFound},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			fixture := newHealthyFixture(subtest)
			fixture.inspector.insideWorkTree = testCase.inside
			fixture.inspector.workTreeError = testCase.lookupError

			observerCalls := 0
			report, runError := fixture.service(subtest, nil).Run(context.Background(), defaultOptions(), func(prepush.CheckResult) {
				observerCalls++
			})

			var requiredError prepush.RepositoryRequiredError
			require.ErrorAs(subtest, runError, &requiredError)
			require.Equal(subtest, testRepositoryPathConstant, requiredError.Path)
			if testCase.expectedCause != nil {
				require.ErrorIs(subtest, runError, testCase.expectedCause)
			}
			require.Empty(subtest, report.Checks)
			require.Zero(subtest, observerCalls)
			require.Equal(subtest, []string{"work-tree " + testRepositoryPathConstant}, fixture.inspector.calls)
			require.Empty(subtest, fixture.writer.path)
		})
	}
}

func TestServiceRunReportsFailures(testInstance *testing.T) {
	testCases := []struct {
		name            string
		mutate          func(fixture *serviceFixture)
		check           string
		expectedVerdict prepush.Verdict
		expectedDetail  string
		expectedLines   []string
		expectedFails   int
	}{
		{
			name: "missing_origin",
			mutate: func(fixture *serviceFixture) {
				fixture.inspector.remoteURL = ""
				fixture.inspector.remoteError = fmt.Errorf("origin: %w", gitrepo.ErrRemoteNotFound)
			},
			check:           prepush.CheckNameRemote,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  "remote origin not configured",
			expectedFails:   1,
		},
		{
			name: "unparseable_remote_still_passes",
			mutate: func(fixture *serviceFixture) {
				fixture.inspector.remoteURL = "/srv/git/project.git"
			},
			check:           prepush.CheckNameRemote,
			expectedVerdict: prepush.VerdictPass,
			expectedDetail:  "origin -> /srv/git/project.git",
		},
		{
			name: "detached_head",
			mutate: func(fixture *serviceFixture) {
				fixture.inspector.branchName = "HEAD"
				fixture.inspector.detached = true
			},
			check:           prepush.CheckNameBranch,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  "detached HEAD",
			expectedFails:   1,
		},
		{
			name: "unmerged_paths",
			mutate: func(fixture *serviceFixture) {
				fixture.inspector.unmergedPaths = []string{"README.md", "cmd/main.go"}
			},
			check:           prepush.CheckNameConflicts,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  "2 unmerged path(s)",
			expectedLines:   []string{"README.md", "cmd/main.go"},
			expectedFails:   1,
		},
		{
			name: "ignore_file_missing",
			mutate: func(fixture *serviceFixture) {
				fixture.fileSystem = afero.NewMemMapFs()
			},
			check:           prepush.CheckNameIgnoreFile,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  ".gitignore not found",
			expectedFails:   1,
		},
		{
			name: "ignore_file_without_exact_line",
			mutate: func(fixture *serviceFixture) {
				fixture.fileSystem = afero.NewMemMapFs()
				_ = afero.WriteFile(fixture.fileSystem, testRepositoryPathConstant+"/.gitignore", []byte("*.env\n.env.local\n# .env\n"), 0o644)
			},
			check:           prepush.CheckNameIgnoreFile,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  ".gitignore does not list .env",
			expectedFails:   1,
		},
		{
			name: "ignore_file_reports_exposed_keys",
			mutate: func(fixture *serviceFixture) {
				fixture.fileSystem = afero.NewMemMapFs()
				_ = afero.WriteFile(fixture.fileSystem, testRepositoryPathConstant+"/.gitignore", []byte("bin/\n"), 0o644)
				_ = afero.WriteFile(fixture.fileSystem, testRepositoryPathConstant+"/.env", []byte("API_TOKEN=abc\n# comment\nDATABASE_URL=postgres://localhost\n"), 0o600)
			},
			check:           prepush.CheckNameIgnoreFile,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  ".gitignore does not list .env; .env would expose 2 key(s)",
			expectedFails:   1,
		},
		{
			name: "leaks_found",
			mutate: func(fixture *serviceFixture) {
				fixture.scanner.report = secrets.ScanReport{Findings: []secrets.Finding{
					{File: "config/app.yaml", Line: 12, RuleID: "generic-api-key"},
					{File: "scripts/deploy.sh", Line: 3, RuleID: "aws-access-token"},
					{File: "scripts/deploy.sh", Line: 4, RuleID: "aws-secret-key"},
				}}
			},
			check:           prepush.CheckNameSecrets,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  "3 leak(s) found",
			expectedLines: []string{
				"config/app.yaml:12 [generic-api-key]",
				"scripts/deploy.sh:3 [aws-access-token]",
				"scripts/deploy.sh:4 [aws-secret-key]",
			},
			expectedFails: 1,
		},
		{
			name: "scanner_report_unreadable",
			mutate: func(fixture *serviceFixture) {
				fixture.scanner.scanError = fmt.Errorf("%w: decode report: unexpected end of JSON input", secrets.ErrReportUnavailable)
			},
			check:           prepush.CheckNameSecrets,
			expectedVerdict: prepush.VerdictWarn,
			expectedDetail:  "scanner degraded",
			expectedLines:   []string{"scanner report unavailable: decode report: unexpected end of JSON input"},
		},
		{
			name: "scanner_missing",
			mutate: func(fixture *serviceFixture) {
				fixture.scanner.scanError = fmt.Errorf("%w: %w", secrets.ErrReportUnavailable, exec.ErrNotFound)
			},
			check:           prepush.CheckNameSecrets,
			expectedVerdict: prepush.VerdictWarn,
			expectedDetail:  "scanner degraded",
			expectedLines: []string{
				"scanner report unavailable: executable file not found in $PATH",
				"install the scanner with: pushguard install-scanner",
			},
		},
		{
			name: "large_file",
			mutate: func(fixture *serviceFixture) {
				fixture.finder.files = []largefiles.OversizedFile{{Path: "assets/video.mp4", SizeBytes: 78643200}}
			},
			check:           prepush.CheckNameLargeFiles,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  "1 file(s) over 50.0 MiB",
			expectedLines:   []string{"assets/video.mp4 (75.0 MiB)"},
			expectedFails:   1,
		},
		{
			name: "large_file_walk_failure",
			mutate: func(fixture *serviceFixture) {
				fixture.finder.findError = errors.New("permission denied")
			},
			check:           prepush.CheckNameLargeFiles,
			expectedVerdict: prepush.VerdictFail,
			expectedDetail:  "working tree could not be walked: permission denied",
			expectedFails:   1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			fixture := newHealthyFixture(subtest)
			testCase.mutate(fixture)

			report, runError := fixture.service(subtest, zap.NewNop()).Run(context.Background(), defaultOptions(), nil)
			require.NoError(subtest, runError)
			require.Len(subtest, report.Checks, 6)

			result := findResult(subtest, report, testCase.check)
			require.Equal(subtest, testCase.expectedVerdict, result.Verdict)
			require.Equal(subtest, testCase.expectedDetail, result.Detail)
			require.Equal(subtest, testCase.expectedLines, result.Lines)
			require.Equal(subtest, testCase.expectedFails, report.FailCount())
		})
	}
}

func TestServiceRunAccumulatesFailures(testInstance *testing.T) {
	fixture := newHealthyFixture(testInstance)
	fixture.inspector.remoteError = fmt.Errorf("origin: %w", gitrepo.ErrRemoteNotFound)
	fixture.inspector.detached = true
	fixture.scanner.scanError = secrets.ErrReportUnavailable
	fixture.finder.files = []largefiles.OversizedFile{{Path: "dump.sql", SizeBytes: 52428801}}

	report, runError := fixture.service(testInstance, nil).Run(context.Background(), defaultOptions(), nil)
	require.NoError(testInstance, runError)
	require.Len(testInstance, report.Checks, 6)
	require.Equal(testInstance, 3, report.FailCount())
	require.Equal(testInstance, 1, report.WarnCount())
	require.False(testInstance, report.Passed())
}

func TestServiceRunAbortsWhenScannerConfigurationCannotBeWritten(testInstance *testing.T) {
	fixture := newHealthyFixture(testInstance)
	fixture.writer.writeError = errors.New("read-only file system")

	var observed []string
	report, runError := fixture.service(testInstance, nil).Run(context.Background(), defaultOptions(), func(result prepush.CheckResult) {
		observed = append(observed, result.Name)
	})

	var configurationError prepush.ScannerConfigurationError
	require.ErrorAs(testInstance, runError, &configurationError)
	require.Equal(testInstance, testRepositoryPathConstant+"/.gitleaks.toml", configurationError.Path)
	require.Len(testInstance, report.Checks, 4)
	require.Equal(testInstance, []string{prepush.CheckNameRemote, prepush.CheckNameBranch, prepush.CheckNameConflicts, prepush.CheckNameIgnoreFile}, observed)
	require.Empty(testInstance, fixture.scanner.targetDirectory)
}

func TestNewServiceRequiresCollaborators(testInstance *testing.T) {
	fixture := newHealthyFixture(testInstance)

	_, inspectorError := prepush.NewService(nil, nil, fixture.scanner, fixture.writer, fixture.finder, nil)
	require.ErrorIs(testInstance, inspectorError, prepush.ErrRepositoryInspectorNotConfigured)

	_, scannerError := prepush.NewService(nil, fixture.inspector, nil, fixture.writer, fixture.finder, nil)
	require.ErrorIs(testInstance, scannerError, prepush.ErrSecretScannerNotConfigured)

	_, writerError := prepush.NewService(nil, fixture.inspector, fixture.scanner, nil, fixture.finder, nil)
	require.ErrorIs(testInstance, writerError, prepush.ErrConfigurationWriterNotConfigured)

	_, finderError := prepush.NewService(nil, fixture.inspector, fixture.scanner, fixture.writer, nil, nil)
	require.ErrorIs(testInstance, finderError, prepush.ErrLargeFileFinderNotConfigured)
}
