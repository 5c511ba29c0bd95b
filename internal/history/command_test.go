package history_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pushguard/internal/execshell"
	"github.com/temirov/pushguard/internal/history"
)

type stubShellExecutor struct {
	calls        []string
	statusOutput string
}

func (executor *stubShellExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := strings.Join(details.Arguments, " ")
	executor.calls = append(executor.calls, "git "+key)
	switch key {
	case "rev-parse --is-inside-work-tree":
		return execshell.ExecutionResult{StandardOutput: "true\n"}, nil
	case "status --porcelain":
		return execshell.ExecutionResult{StandardOutput: executor.statusOutput}, nil
	}
	if strings.HasPrefix(key, "remote ") || strings.HasPrefix(key, "push ") {
		return execshell.ExecutionResult{}, nil
	}
	return execshell.ExecutionResult{}, fmt.Errorf("unexpected git command: %s", key)
}

func (executor *stubShellExecutor) ExecuteGitleaks(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, fmt.Errorf("unexpected gitleaks command")
}

func (executor *stubShellExecutor) ExecuteCurl(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, fmt.Errorf("unexpected curl command")
}

func (executor *stubShellExecutor) ExecuteGitFilterRepo(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.calls = append(executor.calls, "git-filter-repo "+strings.Join(details.Arguments, " "))
	return execshell.ExecutionResult{}, nil
}

func executeCleanHistory(testInstance *testing.T, builder *history.CommandBuilder, input string, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var output bytes.Buffer
	command.SetIn(strings.NewReader(input))
	command.SetOut(&output)
	command.SetErr(&bytes.Buffer{})
	command.SilenceErrors = true
	command.SetArgs(arguments)
	executionError := command.Execute()
	return output.String(), executionError
}

func TestCleanHistoryCommandUsesFlagsOverConfiguration(testInstance *testing.T) {
	executor := &stubShellExecutor{}
	builder := &history.CommandBuilder{
		ConfigurationProvider: func() history.CommandConfiguration {
			configuration := history.DefaultCommandConfiguration()
			configuration.RemovePaths = []string{"from-config.bin"}
			return configuration
		},
		Executor: executor,
	}

	_, executionError := executeCleanHistory(testInstance, builder, "", "--yes", "--remote", "mirror", "--strip-blobs-bigger-than", "10", "--path", "a.zip", "--path", "b.zip", "https://github.com/temirov/clean.git")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []string{
		"git rev-parse --is-inside-work-tree",
		"git status --porcelain",
		"git-filter-repo --force --strip-blobs-bigger-than 10M --invert-paths --path a.zip --path b.zip",
		"git remote remove mirror",
		"git remote add mirror https://github.com/temirov/clean.git",
		"git push --force --all mirror",
		"git push --force --tags mirror",
	}, executor.calls)
}

func TestCleanHistoryCommandPromptsByDefault(testInstance *testing.T) {
	executor := &stubShellExecutor{}
	output, executionError := executeCleanHistory(testInstance, &history.CommandBuilder{Executor: executor}, "no\n", "git@github.com:temirov/clean.git")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "Rewrite the history of . and force-push it to git@github.com:temirov/clean.git? [y/N] ")
	require.Contains(testInstance, output, "History rewrite cancelled")
	require.Equal(testInstance, []string{"git rev-parse --is-inside-work-tree", "git status --porcelain"}, executor.calls)
}

func TestCleanHistoryCommandDryRun(testInstance *testing.T) {
	executor := &stubShellExecutor{}
	output, executionError := executeCleanHistory(testInstance, &history.CommandBuilder{Executor: executor}, "", "--dry-run", "git@github.com:temirov/clean.git")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "  1. git-filter-repo --force --strip-blobs-bigger-than 50M\n")
	require.NotContains(testInstance, strings.Join(executor.calls, "\n"), "git-filter-repo")
}

func TestCleanHistoryCommandToleratesGeneratedScannerConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name          string
		statusOutput  string
		expectedError error
	}{
		{name: "scanner_configuration_only", statusOutput: "?? .gitleaks.toml\n"},
		{name: "other_untracked_file", statusOutput: "?? .gitleaks.toml\n?? notes.txt\n", expectedError: history.ErrDirtyWorktree},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubShellExecutor{statusOutput: testCase.statusOutput}
			_, executionError := executeCleanHistory(testInstance, &history.CommandBuilder{Executor: executor}, "", "--yes", "git@github.com:temirov/clean.git")
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, executionError, testCase.expectedError)
				require.NotContains(testInstance, strings.Join(executor.calls, "\n"), "git-filter-repo")
				return
			}
			require.NoError(testInstance, executionError)
			require.Contains(testInstance, executor.calls, "git-filter-repo --force --strip-blobs-bigger-than 50M")
		})
	}
}

func TestCleanHistoryCommandRequiresRemoteURL(testInstance *testing.T) {
	_, executionError := executeCleanHistory(testInstance, &history.CommandBuilder{Executor: &stubShellExecutor{}}, "")
	require.EqualError(testInstance, executionError, "accepts 1 arg(s), received 0")
}
