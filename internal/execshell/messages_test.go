package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMessagesForRepositoryCommands(t *testing.T) {
	formatter := CommandMessageFormatter{}
	testCases := []struct {
		name     string
		command  ShellCommand
		result   ExecutionResult
		stage    messageStage
		expected string
	}{
		{
			name:     "work_tree_start",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"rev-parse", "--is-inside-work-tree"}, WorkingDirectory: "/workspace/repo"}},
			stage:    messageStageStart,
			expected: "Analyzing repository at /workspace/repo",
		},
		{
			name:     "detached_head",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"symbolic-ref", "--quiet", "--short", "HEAD"}, WorkingDirectory: "/workspace/repo"}},
			result:   ExecutionResult{ExitCode: 1},
			stage:    messageStageFailure,
			expected: "/workspace/repo is in a detached HEAD state",
		},
		{
			name:     "current_branch",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"symbolic-ref", "--quiet", "--short", "HEAD"}, WorkingDirectory: "/workspace/repo"}},
			result:   ExecutionResult{StandardOutput: "main\n"},
			stage:    messageStageSuccess,
			expected: "Current branch in /workspace/repo is main",
		},
		{
			name:     "remote_lookup_failure",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"remote", "get-url", "origin"}}},
			result:   ExecutionResult{ExitCode: 2, StandardError: "error: No such remote 'origin'\n"},
			stage:    messageStageFailure,
			expected: "Failed to read origin remote for current directory (exit code 2: error: No such remote 'origin')",
		},
		{
			name:     "force_push_all",
			command:  ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"push", "--force", "--all", "origin"}, WorkingDirectory: "/workspace/repo"}},
			stage:    messageStageStart,
			expected: "Force pushing all to origin from /workspace/repo",
		},
		{
			name:     "gitleaks_detect",
			command:  ShellCommand{Name: CommandGitleaks, Details: CommandDetails{Arguments: []string{"detect", "--source", "/workspace/repo", "--no-banner"}}},
			stage:    messageStageSuccess,
			expected: "Finished scanning /workspace/repo for secrets",
		},
		{
			name:     "curl_download",
			command:  ShellCommand{Name: CommandCurl, Details: CommandDetails{Arguments: []string{"-sSfL", "-o", "/tmp/archive.tar.gz", "https://example.com/archive.tar.gz"}}},
			stage:    messageStageStart,
			expected: "Downloading https://example.com/archive.tar.gz",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			message := formatter.buildMessage(testCase.command, testCase.result, nil, testCase.stage)
			require.Equal(t, testCase.expected, message)
		})
	}
}

func TestBuildExecutionFailureMessageForFilterRepo(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGitFilterRepo,
		Details: CommandDetails{Arguments: []string{"--force"}, WorkingDirectory: "/workspace/repo"},
	}

	message := formatter.BuildExecutionFailureMessage(command, errors.New("executable file not found"))

	require.Equal(t, "Unable to rewrite history in /workspace/repo: executable file not found", message)
}

func TestBuildStartedMessageFallsBackToGenericLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGit,
		Details: CommandDetails{Arguments: []string{"log", "--oneline"}, WorkingDirectory: "/workspace/repo"},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Running git log --oneline (in /workspace/repo)", message)
}
