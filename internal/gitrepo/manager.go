package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/pushguard/internal/execshell"
)

const (
	requiredValueMessageConstant          = "value required"
	gitExecutorNotConfiguredMessage       = "git executor not configured"
	remoteNotFoundMessageConstant         = "remote not configured"
	remoteLookupErrorTemplateConstant     = "%s: %w"
	gitRevParseSubcommandConstant         = "rev-parse"
	gitWorkTreeFlagConstant               = "--is-inside-work-tree"
	gitShowTopLevelFlagConstant           = "--show-toplevel"
	gitSymbolicRefSubcommandConstant      = "symbolic-ref"
	gitQuietFlagConstant                  = "--quiet"
	gitShortFlagConstant                  = "--short"
	gitHeadReferenceConstant              = "HEAD"
	gitSymbolicRefDetachedExitCode        = 1
	gitRemoteSubcommandConstant           = "remote"
	gitRemoteGetURLSubcommandConstant     = "get-url"
	gitRemoteAddSubcommandConstant        = "add"
	gitRemoteRemoveSubcommandConstant     = "remove"
	gitDiffSubcommandConstant             = "diff"
	gitNameOnlyFlagConstant               = "--name-only"
	gitUnmergedFilterFlagConstant         = "--diff-filter=U"
	gitStatusSubcommandConstant           = "status"
	gitPorcelainFlagConstant              = "--porcelain"
	gitWorkTreeAffirmativeOutputConstant  = "true"
	gitUntrackedStatusPrefixConstant      = "?? "
	gitOutputLineSeparatorConstant        = "\n"
	gitCarriageReturnCharacterSetConstant = "\r"
)

// Errors surfaced by RepositoryManager.
var (
	ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessage)
	ErrRemoteNotFound           = errors.New(remoteNotFoundMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager answers questions about a working tree by running git.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsInsideWorkTree reports whether repositoryPath is inside a git working tree.
// A git failure such as "not a git repository" yields false without an error.
func (manager *RepositoryManager) IsInsideWorkTree(executionContext context.Context, repositoryPath string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitWorkTreeFlagConstant)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			return false, nil
		}
		return false, executionError
	}
	return strings.TrimSpace(result.StandardOutput) == gitWorkTreeAffirmativeOutputConstant, nil
}

// TopLevel returns the absolute path of the working tree root.
func (manager *RepositoryManager) TopLevel(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// GetRemoteURL returns the URL configured for remoteName. ErrRemoteNotFound is wrapped when git cannot resolve the remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, remoteName)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			return "", fmt.Errorf(remoteLookupErrorTemplateConstant, remoteName, ErrRemoteNotFound)
		}
		return "", executionError
	}

	remoteURL := strings.TrimSpace(result.StandardOutput)
	if len(remoteURL) == 0 {
		return "", fmt.Errorf(remoteLookupErrorTemplateConstant, remoteName, ErrRemoteNotFound)
	}
	return remoteURL, nil
}

// GetCurrentBranch returns the checked out branch. detached is true when HEAD does not point at a branch.
// A branch without commits yet is still reported by name.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (branchName string, detached bool, branchError error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) && failedError.Result.ExitCode == gitSymbolicRefDetachedExitCode {
			return gitHeadReferenceConstant, true, nil
		}
		return "", false, executionError
	}

	branchName = strings.TrimSpace(result.StandardOutput)
	if len(branchName) == 0 {
		return gitHeadReferenceConstant, true, nil
	}
	return branchName, false, nil
}

// ListUnmergedPaths returns the paths git reports as unmerged, in git's order.
func (manager *RepositoryManager) ListUnmergedPaths(executionContext context.Context, repositoryPath string) ([]string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitDiffSubcommandConstant, gitNameOnlyFlagConstant, gitUnmergedFilterFlagConstant)
	if executionError != nil {
		return nil, executionError
	}
	return splitOutputLines(result.StandardOutput), nil
}

// CheckCleanWorktree reports whether the working tree has no staged or unstaged changes and no untracked
// files other than tolerableUntrackedPaths.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string, tolerableUntrackedPaths ...string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}

	tolerated := make(map[string]struct{}, len(tolerableUntrackedPaths))
	for _, tolerablePath := range tolerableUntrackedPaths {
		tolerated[filepath.ToSlash(filepath.Clean(tolerablePath))] = struct{}{}
	}

	for _, statusLine := range splitOutputLines(result.StandardOutput) {
		untrackedPath, untracked := strings.CutPrefix(statusLine, gitUntrackedStatusPrefixConstant)
		if !untracked {
			return false, nil
		}
		if _, found := tolerated[untrackedPath]; !found {
			return false, nil
		}
	}
	return true, nil
}

// AddRemote registers remoteName pointing at remoteURL.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	_, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, remoteName, remoteURL)
	return executionError
}

// RemoveRemote deletes remoteName.
func (manager *RepositoryManager) RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	_, executionError := manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteRemoveSubcommandConstant, remoteName)
	return executionError
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
}

func splitOutputLines(output string) []string {
	rawLines := strings.Split(output, gitOutputLineSeparatorConstant)
	lines := make([]string, 0, len(rawLines))
	for _, rawLine := range rawLines {
		trimmedLine := strings.TrimRight(rawLine, gitCarriageReturnCharacterSetConstant)
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	return lines
}
