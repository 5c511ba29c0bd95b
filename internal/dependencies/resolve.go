// Package dependencies builds the default collaborators used by pushguard commands
// while letting callers and tests substitute their own.
package dependencies

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/pushguard/internal/execshell"
	"github.com/temirov/pushguard/internal/gitrepo"
	"github.com/temirov/pushguard/internal/largefiles"
	"github.com/temirov/pushguard/internal/secrets"
)

// ShellExecutor is the union of executables pushguard runs.
type ShellExecutor interface {
	gitrepo.GitExecutor
	secrets.GitleaksExecutor
	secrets.CurlExecutor
	ExecuteGitFilterRepo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ResolveShellExecutor returns the provided executor or constructs one backed by os/exec.
func ResolveShellExecutor(existing ShellExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (ShellExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), observer)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveExecutableLocator returns the provided locator or the PATH lookup of the operating system.
func ResolveExecutableLocator(existing secrets.ExecutableLocator) secrets.ExecutableLocator {
	if existing != nil {
		return existing
	}
	return execshell.NewOSCommandRunner()
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing afero.Fs) afero.Fs {
	if existing != nil {
		return existing
	}
	return afero.NewOsFs()
}

// ResolveRepositoryManager constructs a git-backed repository manager around executor.
func ResolveRepositoryManager(executor gitrepo.GitExecutor) (*gitrepo.RepositoryManager, error) {
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveSecretScanner constructs a gitleaks scanner around executor.
func ResolveSecretScanner(executor secrets.GitleaksExecutor, mode secrets.ScanMode) (*secrets.Scanner, error) {
	return secrets.NewScanner(executor, mode)
}

// ResolveLargeFileFinder constructs a finder over fileSystem.
func ResolveLargeFileFinder(fileSystem afero.Fs) *largefiles.Finder {
	return largefiles.NewFinder(fileSystem)
}
