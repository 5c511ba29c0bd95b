package secrets_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pushguard/internal/execshell"
	"github.com/temirov/pushguard/internal/secrets"
)

const (
	testTargetDirectoryConstant = "/workspace/project"
	testTwoFindingsReport       = `[
  {"Description":"AWS Access Key","StartLine":3,"File":"config/settings.py","RuleID":"aws-access-token","Commit":"1a2b3c","Secret":"REDACTED"},
  {"Description":"Generic API Key","StartLine":12,"File":"app.js","RuleID":"generic-api-key","Commit":"4d5e6f","Secret":"REDACTED"}
]`
)

type stubGitleaksExecutor struct {
	result           execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.CommandDetails
}

func (executor *stubGitleaksExecutor) ExecuteGitleaks(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	return executor.result, executor.executionError
}

func TestScannerScan(testInstance *testing.T) {
	testCases := []struct {
		name              string
		result            execshell.ExecutionResult
		executionError    error
		expectedLocations []string
		expectUnavailable bool
	}{
		{name: "no_findings", result: execshell.ExecutionResult{StandardOutput: "[]\n"}, expectedLocations: []string{}},
		{
			name:              "two_findings",
			result:            execshell.ExecutionResult{StandardOutput: testTwoFindingsReport},
			expectedLocations: []string{"config/settings.py:3 [aws-access-token]", "app.js:12 [generic-api-key]"},
		},
		{name: "empty_output", result: execshell.ExecutionResult{StandardOutput: "  \n"}, expectUnavailable: true},
		{name: "garbage_output", result: execshell.ExecutionResult{StandardOutput: "scan aborted"}, expectUnavailable: true},
		{name: "scanner_missing", executionError: execshell.CommandExecutionError{Cause: execshell.ExecutableNotFoundError{Name: execshell.CommandGitleaks}}, expectUnavailable: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubGitleaksExecutor{result: testCase.result, executionError: testCase.executionError}
			scanner, creationError := secrets.NewScanner(executor, secrets.ScanModeHistory)
			require.NoError(testInstance, creationError)

			report, scanError := scanner.Scan(context.Background(), testTargetDirectoryConstant, testTargetDirectoryConstant+"/.gitleaks.toml")
			if testCase.expectUnavailable {
				require.ErrorIs(testInstance, scanError, secrets.ErrReportUnavailable)
				return
			}
			require.NoError(testInstance, scanError)

			locations := make([]string, 0, len(report.Findings))
			for _, finding := range report.Findings {
				locations = append(locations, finding.Location())
			}
			require.Equal(testInstance, testCase.expectedLocations, locations)
		})
	}
}

func TestScannerScanKeepsMissingExecutableCause(testInstance *testing.T) {
	executor := &stubGitleaksExecutor{executionError: execshell.CommandExecutionError{Cause: execshell.ExecutableNotFoundError{Name: execshell.CommandGitleaks}}}
	scanner, creationError := secrets.NewScanner(executor, secrets.ScanModeHistory)
	require.NoError(testInstance, creationError)

	_, scanError := scanner.Scan(context.Background(), testTargetDirectoryConstant, ".gitleaks.toml")
	require.ErrorIs(testInstance, scanError, secrets.ErrReportUnavailable)
	require.True(testInstance, errors.Is(scanError, exec.ErrNotFound))
	require.Contains(testInstance, scanError.Error(), "gitleaks not found on PATH")
}

func TestScannerBuildsReportToStandardOutput(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mode          secrets.ScanMode
		expectedTail  string
		expectedNoGit bool
	}{
		{name: "history", mode: secrets.ScanModeHistory},
		{name: "directory", mode: secrets.ScanModeDirectory, expectedNoGit: true},
		{name: "unknown_defaults_to_history", mode: secrets.ScanMode("bogus")},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubGitleaksExecutor{result: execshell.ExecutionResult{StandardOutput: "[]"}}
			scanner, creationError := secrets.NewScanner(executor, testCase.mode)
			require.NoError(testInstance, creationError)

			_, scanError := scanner.Scan(context.Background(), testTargetDirectoryConstant, "/workspace/project/.gitleaks.toml")
			require.NoError(testInstance, scanError)

			require.Len(testInstance, executor.recordedCommands, 1)
			joinedArguments := strings.Join(executor.recordedCommands[0].Arguments, " ")
			require.Contains(testInstance, joinedArguments, "detect --source /workspace/project --config /workspace/project/.gitleaks.toml")
			require.Contains(testInstance, joinedArguments, "--report-format json --report-path -")
			require.Contains(testInstance, joinedArguments, "--exit-code 0")
			require.Equal(testInstance, testCase.expectedNoGit, strings.Contains(joinedArguments, "--no-git"))
		})
	}
}

func TestScannerResolvesRelativeRepositoryPaths(testInstance *testing.T) {
	testInstance.Chdir(testInstance.TempDir())
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	executor := &stubGitleaksExecutor{result: execshell.ExecutionResult{StandardOutput: "[]"}}
	scanner, creationError := secrets.NewScanner(executor, secrets.ScanModeHistory)
	require.NoError(testInstance, creationError)

	_, scanError := scanner.Scan(context.Background(), "sub", filepath.Join("sub", ".gitleaks.toml"))
	require.NoError(testInstance, scanError)

	expectedSource := filepath.Join(workingDirectory, "sub")
	require.Len(testInstance, executor.recordedCommands, 1)
	recordedCommand := executor.recordedCommands[0]
	require.Equal(testInstance, expectedSource, recordedCommand.WorkingDirectory)
	require.Equal(testInstance, []string{"detect", "--source", expectedSource, "--config", filepath.Join(expectedSource, ".gitleaks.toml")}, recordedCommand.Arguments[:5])
}

func TestNewScannerRequiresExecutor(testInstance *testing.T) {
	_, creationError := secrets.NewScanner(nil, secrets.ScanModeHistory)
	require.ErrorIs(testInstance, creationError, secrets.ErrScannerNotConfigured)
}
