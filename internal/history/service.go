package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pushguard/internal/execshell"
	"github.com/temirov/pushguard/internal/gitrepo"
)

const (
	filterRepoForceFlagConstant       = "--force"
	filterRepoStripBlobsFlagConstant  = "--strip-blobs-bigger-than"
	filterRepoInvertPathsFlagConstant = "--invert-paths"
	filterRepoPathFlagConstant        = "--path"
	megabyteSuffixConstant            = "M"
	gitPushSubcommandConstant         = "push"
	gitForceFlagConstant              = "--force"
	gitAllFlagConstant                = "--all"
	gitTagsFlagConstant               = "--tags"

	planHeaderTemplateConstant         = "Plan for %s:\n"
	planStepTemplateConstant           = "  %d. %s\n"
	stepTemplateConstant               = "%s\n"
	filterRepoCommandPrefixConstant    = "git-filter-repo"
	gitCommandPrefixConstant           = "git"
	addRemoteStepTemplateConstant      = "git remote add %s %s"
	confirmationPromptTemplateConstant = "Rewrite the history of %s and force-push it to %s? [y/N] "
	cancelledMessageConstant           = "History rewrite cancelled"
	completedMessageTemplateConstant   = "History rewritten and pushed to %s\n"
	rewriteErrorTemplateConstant       = "rewrite history: %w"
	remoteErrorTemplateConstant        = "configure remote %s: %w"
	pushErrorTemplateConstant          = "push to %s: %w"
	invalidRemoteTemplateConstant      = "invalid remote url %q: %w"
	confirmationErrorTemplateConstant  = "read confirmation: %w"
	wrappedCauseTemplateConstant       = "%w: %w"

	repositoryRequiredMessageConstant = "not inside a git repository"
	dirtyWorktreeMessageConstant      = "working tree has uncommitted changes"
	managerMissingMessageConstant     = "repository manager not configured"
	executorMissingMessageConstant    = "history executor not configured"

	repositoryPathLogFieldConstant = "repository_path"
	remoteLogFieldConstant         = "remote"
	remoteURLLogFieldConstant      = "remote_url"
	remoteRemovalSkippedMessage    = "existing remote could not be removed"
	historyRewrittenLogMessage     = "history rewritten and pushed"
)

// Errors returned by Service.
var (
	ErrRepositoryRequired             = errors.New(repositoryRequiredMessageConstant)
	ErrDirtyWorktree                  = errors.New(dirtyWorktreeMessageConstant)
	ErrRepositoryManagerNotConfigured = errors.New(managerMissingMessageConstant)
	ErrExecutorNotConfigured          = errors.New(executorMissingMessageConstant)
)

// RepositoryManager exposes the git operations the cleaner needs.
type RepositoryManager interface {
	IsInsideWorkTree(executionContext context.Context, repositoryPath string) (bool, error)
	CheckCleanWorktree(executionContext context.Context, repositoryPath string, tolerableUntrackedPaths ...string) (bool, error)
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error
}

// Executor runs git and git-filter-repo.
type Executor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitFilterRepo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Options describes a single clean-history invocation. GeneratedFiles lists untracked files the
// worktree cleanliness check ignores.
type Options struct {
	RepositoryPath                string
	RemoteName                    string
	RemoteURL                     string
	StripBlobsBiggerThanMegabytes int
	RemovePaths                   []string
	GeneratedFiles                []string
	DryRun                        bool
	AssumeYes                     bool
}

// Service rewrites history and republishes the repository.
type Service struct {
	logger       *zap.Logger
	manager      RepositoryManager
	executor     Executor
	prompter     ConfirmationPrompter
	outputWriter io.Writer
}

// NewService constructs a Service. A nil prompter declines every confirmation.
func NewService(logger *zap.Logger, manager RepositoryManager, executor Executor, prompter ConfirmationPrompter, outputWriter io.Writer) (*Service, error) {
	if manager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	return &Service{logger: logger, manager: manager, executor: executor, prompter: prompter, outputWriter: outputWriter}, nil
}

// Run validates the repository, confirms with the operator, and performs the rewrite and force-push.
func (service *Service) Run(executionContext context.Context, options Options) error {
	remoteURL := strings.TrimSpace(options.RemoteURL)
	if _, parseError := gitrepo.ParseRemoteURL(remoteURL); parseError != nil {
		return fmt.Errorf(invalidRemoteTemplateConstant, options.RemoteURL, parseError)
	}

	insideWorkTree, workTreeError := service.manager.IsInsideWorkTree(executionContext, options.RepositoryPath)
	if workTreeError != nil {
		return fmt.Errorf(wrappedCauseTemplateConstant, ErrRepositoryRequired, workTreeError)
	}
	if !insideWorkTree {
		return ErrRepositoryRequired
	}

	clean, cleanError := service.manager.CheckCleanWorktree(executionContext, options.RepositoryPath, options.GeneratedFiles...)
	if cleanError != nil {
		return cleanError
	}
	if !clean {
		return ErrDirtyWorktree
	}

	steps := planSteps(options, remoteURL)
	if options.DryRun {
		return service.printPlan(options.RepositoryPath, steps)
	}

	if !options.AssumeYes {
		confirmed, confirmationError := service.confirm(fmt.Sprintf(confirmationPromptTemplateConstant, options.RepositoryPath, remoteURL))
		if confirmationError != nil {
			return fmt.Errorf(confirmationErrorTemplateConstant, confirmationError)
		}
		if !confirmed {
			fmt.Fprintln(service.outputWriter, cancelledMessageConstant)
			return nil
		}
	}

	runLogger := service.logger.With(
		zap.String(repositoryPathLogFieldConstant, options.RepositoryPath),
		zap.String(remoteLogFieldConstant, options.RemoteName),
		zap.String(remoteURLLogFieldConstant, remoteURL),
	)

	fmt.Fprintf(service.outputWriter, stepTemplateConstant, steps[0])
	if _, rewriteError := service.executor.ExecuteGitFilterRepo(executionContext, execshell.CommandDetails{
		Arguments:        filterRepoArguments(options),
		WorkingDirectory: options.RepositoryPath,
	}); rewriteError != nil {
		return fmt.Errorf(rewriteErrorTemplateConstant, rewriteError)
	}

	if removeError := service.manager.RemoveRemote(executionContext, options.RepositoryPath, options.RemoteName); removeError != nil {
		runLogger.Debug(remoteRemovalSkippedMessage, zap.Error(removeError))
	}

	fmt.Fprintf(service.outputWriter, stepTemplateConstant, steps[1])
	if addError := service.manager.AddRemote(executionContext, options.RepositoryPath, options.RemoteName, remoteURL); addError != nil {
		return fmt.Errorf(remoteErrorTemplateConstant, options.RemoteName, addError)
	}

	for stepIndex, pushArguments := range pushArgumentSets(options.RemoteName) {
		fmt.Fprintf(service.outputWriter, stepTemplateConstant, steps[2+stepIndex])
		if _, pushError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments:        pushArguments,
			WorkingDirectory: options.RepositoryPath,
		}); pushError != nil {
			return fmt.Errorf(pushErrorTemplateConstant, options.RemoteName, pushError)
		}
	}

	runLogger.Info(historyRewrittenLogMessage)
	fmt.Fprintf(service.outputWriter, completedMessageTemplateConstant, remoteURL)
	return nil
}

func (service *Service) confirm(prompt string) (bool, error) {
	if service.prompter == nil {
		return false, nil
	}
	return service.prompter.Confirm(prompt)
}

func (service *Service) printPlan(repositoryPath string, steps []string) error {
	if _, writeError := fmt.Fprintf(service.outputWriter, planHeaderTemplateConstant, repositoryPath); writeError != nil {
		return writeError
	}
	for index, step := range steps {
		if _, writeError := fmt.Fprintf(service.outputWriter, planStepTemplateConstant, index+1, step); writeError != nil {
			return writeError
		}
	}
	return nil
}

// planSteps renders the commands Run executes in order, omitting the best-effort remote removal.
func planSteps(options Options, remoteURL string) []string {
	steps := []string{
		filterRepoCommandPrefixConstant + " " + strings.Join(filterRepoArguments(options), " "),
		fmt.Sprintf(addRemoteStepTemplateConstant, options.RemoteName, remoteURL),
	}
	for _, pushArguments := range pushArgumentSets(options.RemoteName) {
		steps = append(steps, gitCommandPrefixConstant+" "+strings.Join(pushArguments, " "))
	}
	return steps
}

func filterRepoArguments(options Options) []string {
	arguments := []string{
		filterRepoForceFlagConstant,
		filterRepoStripBlobsFlagConstant, strconv.Itoa(options.StripBlobsBiggerThanMegabytes) + megabyteSuffixConstant,
	}
	if len(options.RemovePaths) == 0 {
		return arguments
	}
	arguments = append(arguments, filterRepoInvertPathsFlagConstant)
	for _, removedPath := range options.RemovePaths {
		arguments = append(arguments, filterRepoPathFlagConstant, removedPath)
	}
	return arguments
}

func pushArgumentSets(remoteName string) [][]string {
	return [][]string{
		{gitPushSubcommandConstant, gitForceFlagConstant, gitAllFlagConstant, remoteName},
		{gitPushSubcommandConstant, gitForceFlagConstant, gitTagsFlagConstant, remoteName},
	}
}
