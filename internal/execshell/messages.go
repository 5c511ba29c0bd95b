package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitRevParseSubcommandNameConstant     = "rev-parse"
	gitWorkTreeFlagConstant               = "--is-inside-work-tree"
	gitSymbolicRefSubcommandNameConstant  = "symbolic-ref"
	gitSymbolicRefDetachedExitCode        = 1
	gitShowTopLevelFlagConstant           = "--show-toplevel"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	gitRemoteAddSubcommandNameConstant    = "add"
	gitRemoteRemoveSubcommandNameConstant = "remove"
	gitDiffSubcommandNameConstant         = "diff"
	gitStatusSubcommandNameConstant       = "status"
	gitPushSubcommandNameConstant         = "push"
	gitleaksDetectSubcommandNameConstant  = "detect"
	gitleaksSourceFlagConstant            = "--source"
	curlOutputFlagConstant                = "-o"
)

const (
	gitWorkTreeStartTemplateConstant                 = "Analyzing repository at %s"
	gitWorkTreeSuccessTemplateConstant               = "%s is a Git repository"
	gitWorkTreeFailureTemplateConstant               = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitWorkTreeExecutionFailureTemplateConstant      = "Could not analyze %s: %s"
	gitTopLevelStartTemplateConstant                 = "Resolving repository root for %s"
	gitTopLevelSuccessTemplateConstant               = "Repository root for %s is %s"
	gitTopLevelFailureTemplateConstant               = "Failed to resolve repository root for %s (exit code %d%s)"
	gitTopLevelExecutionFailureTemplateConstant      = "Unable to resolve repository root for %s: %s"
	gitCurrentBranchStartTemplateConstant            = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant          = "Current branch in %s is %s"
	gitCurrentBranchDetachedSuccessTemplateConstant  = "%s is in a detached HEAD state"
	gitCurrentBranchFailureTemplateConstant          = "Failed to identify current branch in %s (exit code %d%s)"
	gitCurrentBranchExecutionFailureTemplateConstant = "Unable to identify current branch in %s: %s"
	gitRemoteLookupStartTemplateConstant             = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant           = "%s remote for %s points to %s"
	gitRemoteLookupFailureTemplateConstant           = "Failed to read %s remote for %s (exit code %d%s)"
	gitRemoteLookupExecutionFailureTemplateConstant  = "Unable to read %s remote for %s: %s"
	gitRemoteAddStartTemplateConstant                = "Adding %s remote for %s pointing to %s"
	gitRemoteAddSuccessTemplateConstant              = "Added %s remote for %s pointing to %s"
	gitRemoteAddFailureTemplateConstant              = "Failed to add %s remote for %s (exit code %d%s)"
	gitRemoteAddExecutionFailureTemplateConstant     = "Unable to add %s remote for %s: %s"
	gitRemoteRemoveStartTemplateConstant             = "Removing %s remote from %s"
	gitRemoteRemoveSuccessTemplateConstant           = "Removed %s remote from %s"
	gitRemoteRemoveFailureTemplateConstant           = "Failed to remove %s remote from %s (exit code %d%s)"
	gitRemoteRemoveExecutionFailureTemplateConstant  = "Unable to remove %s remote from %s: %s"
	gitConflictStartTemplateConstant                 = "Looking for unmerged paths in %s"
	gitConflictSuccessTemplateConstant               = "Collected unmerged paths for %s"
	gitConflictFailureTemplateConstant               = "Failed to list unmerged paths in %s (exit code %d%s)"
	gitConflictExecutionFailureTemplateConstant      = "Unable to list unmerged paths in %s: %s"
	gitStatusStartTemplateConstant                   = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant                 = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant                 = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant        = "Unable to review working tree status in %s: %s"
	gitPushStartTemplateConstant                     = "Force pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                   = "Force pushed %s to %s from %s"
	gitPushFailureTemplateConstant                   = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant          = "Unable to push %s to %s from %s: %s"
	gitleaksStartTemplateConstant                    = "Scanning %s for secrets"
	gitleaksSuccessTemplateConstant                  = "Finished scanning %s for secrets"
	gitleaksFailureTemplateConstant                  = "Secret scan of %s failed (exit code %d%s)"
	gitleaksExecutionFailureTemplateConstant         = "Unable to scan %s for secrets: %s"
	curlStartTemplateConstant                        = "Downloading %s"
	curlSuccessTemplateConstant                      = "Downloaded %s"
	curlFailureTemplateConstant                      = "Failed to download %s (exit code %d%s)"
	curlExecutionFailureTemplateConstant             = "Unable to download %s: %s"
	filterRepoStartTemplateConstant                  = "Rewriting history in %s"
	filterRepoSuccessTemplateConstant                = "Rewrote history in %s"
	filterRepoFailureTemplateConstant                = "Failed to rewrite history in %s (exit code %d%s)"
	filterRepoExecutionFailureTemplateConstant       = "Unable to rewrite history in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildCompletedMessage formats the success or failure message for a finished command based on its exit code.
func (formatter CommandMessageFormatter) BuildCompletedMessage(command ShellCommand, result ExecutionResult) string {
	if result.ExitCode == 0 {
		return formatter.buildMessage(command, result, nil, messageStageSuccess)
	}
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitleaks:
		return formatter.describeGitleaksMessage(command, result, failure, stage)
	case CommandCurl:
		return formatter.describeCurlMessage(command, result, failure, stage)
	case CommandGitFilterRepo:
		workingDirectory := formatter.describeWorkingDirectory(command)
		return formatter.selectTemplate(stage, result, failure, workingDirectory, filterRepoStartTemplateConstant, filterRepoSuccessTemplateConstant, filterRepoFailureTemplateConstant, filterRepoExecutionFailureTemplateConstant)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments

	switch strings.TrimSpace(arguments[0]) {
	case gitRevParseSubcommandNameConstant:
		return formatter.describeGitRevParseMessage(command, result, failure, stage)
	case gitSymbolicRefSubcommandNameConstant:
		return formatter.describeGitCurrentBranchMessage(command, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	case gitDiffSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, workingDirectory, gitConflictStartTemplateConstant, gitConflictSuccessTemplateConstant, gitConflictFailureTemplateConstant, gitConflictExecutionFailureTemplateConstant)
	case gitStatusSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, workingDirectory, gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant, gitStatusFailureTemplateConstant, gitStatusExecutionFailureTemplateConstant)
	case gitPushSubcommandNameConstant:
		return formatter.describeGitPushMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRevParseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch {
	case containsArgument(arguments, gitWorkTreeFlagConstant):
		return formatter.selectTemplate(stage, result, failure, workingDirectory, gitWorkTreeStartTemplateConstant, gitWorkTreeSuccessTemplateConstant, gitWorkTreeFailureTemplateConstant, gitWorkTreeExecutionFailureTemplateConstant)
	case containsArgument(arguments, gitShowTopLevelFlagConstant):
		if stage == messageStageSuccess {
			return fmt.Sprintf(gitTopLevelSuccessTemplateConstant, workingDirectory, formatter.ensureValue(result.StandardOutput))
		}
		return formatter.selectTemplate(stage, result, failure, workingDirectory, gitTopLevelStartTemplateConstant, gitTopLevelSuccessTemplateConstant, gitTopLevelFailureTemplateConstant, gitTopLevelExecutionFailureTemplateConstant)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

// describeGitCurrentBranchMessage treats exit code 1 from symbolic-ref as a detached HEAD.
func (formatter CommandMessageFormatter) describeGitCurrentBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch {
	case stage == messageStageSuccess:
		trimmed := strings.TrimSpace(result.StandardOutput)
		if len(trimmed) == 0 {
			return fmt.Sprintf(gitCurrentBranchDetachedSuccessTemplateConstant, workingDirectory)
		}
		return fmt.Sprintf(gitCurrentBranchSuccessTemplateConstant, workingDirectory, trimmed)
	case stage == messageStageFailure && result.ExitCode == gitSymbolicRefDetachedExitCode:
		return fmt.Sprintf(gitCurrentBranchDetachedSuccessTemplateConstant, workingDirectory)
	default:
		return formatter.selectTemplate(stage, result, failure, workingDirectory, gitCurrentBranchStartTemplateConstant, gitCurrentBranchSuccessTemplateConstant, gitCurrentBranchFailureTemplateConstant, gitCurrentBranchExecutionFailureTemplateConstant)
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))

	switch strings.TrimSpace(formatter.argumentAtIndex(arguments, 1)) {
	case gitRemoteGetURLSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRemoteLookupStartTemplateConstant, remoteName, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitRemoteLookupSuccessTemplateConstant, remoteName, workingDirectory, formatter.ensureValue(result.StandardOutput))
		case messageStageFailure:
			return fmt.Sprintf(gitRemoteLookupFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitRemoteLookupExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
		}
	case gitRemoteAddSubcommandNameConstant:
		remoteURL := formatter.ensureValue(formatter.argumentAtIndex(arguments, 3))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRemoteAddStartTemplateConstant, remoteName, workingDirectory, remoteURL)
		case messageStageSuccess:
			return fmt.Sprintf(gitRemoteAddSuccessTemplateConstant, remoteName, workingDirectory, remoteURL)
		case messageStageFailure:
			return fmt.Sprintf(gitRemoteAddFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitRemoteAddExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
		}
	case gitRemoteRemoveSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRemoteRemoveStartTemplateConstant, remoteName, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitRemoteRemoveSuccessTemplateConstant, remoteName, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitRemoteRemoveFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitRemoteRemoveExecutionFailureTemplateConstant, remoteName, workingDirectory, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitPushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName, references := formatter.extractRemoteAndReferences(command.Details.Arguments)
	trimmedRemote := formatter.ensureValue(remoteName)
	referenceLabel := formatter.ensureValue(strings.Join(references, commandArgumentsJoinSeparatorConstant))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPushStartTemplateConstant, referenceLabel, trimmedRemote, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPushSuccessTemplateConstant, referenceLabel, trimmedRemote, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPushFailureTemplateConstant, referenceLabel, trimmedRemote, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, referenceLabel, trimmedRemote, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitleaksMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 || strings.TrimSpace(arguments[0]) != gitleaksDetectSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	scanTarget := findFlagValue(arguments, gitleaksSourceFlagConstant)
	if len(scanTarget) == 0 {
		scanTarget = formatter.describeWorkingDirectory(command)
	}
	return formatter.selectTemplate(stage, result, failure, scanTarget, gitleaksStartTemplateConstant, gitleaksSuccessTemplateConstant, gitleaksFailureTemplateConstant, gitleaksExecutionFailureTemplateConstant)
}

func (formatter CommandMessageFormatter) describeCurlMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	downloadURL := formatter.ensureValue(arguments[len(arguments)-1])
	if len(findFlagValue(arguments, curlOutputFlagConstant)) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	return formatter.selectTemplate(stage, result, failure, downloadURL, curlStartTemplateConstant, curlSuccessTemplateConstant, curlFailureTemplateConstant, curlExecutionFailureTemplateConstant)
}

// selectTemplate renders single-subject templates; failure templates also receive the exit code and stderr suffix.
func (formatter CommandMessageFormatter) selectTemplate(stage messageStage, result ExecutionResult, failure error, subject string, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, subject)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, subject)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, subject, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

// extractRemoteAndReferences returns the first positional argument after the subcommand as the remote and the flags
// naming reference groups (--all, --tags) or the remaining positional arguments as references.
func (formatter CommandMessageFormatter) extractRemoteAndReferences(arguments []string) (string, []string) {
	var remoteName string
	var references []string
	for _, argument := range arguments[1:] {
		trimmedArgument := strings.TrimSpace(argument)
		switch {
		case trimmedArgument == "--all" || trimmedArgument == "--tags":
			references = append(references, strings.TrimPrefix(trimmedArgument, "--"))
		case strings.HasPrefix(trimmedArgument, "-"):
			continue
		case len(remoteName) == 0:
			remoteName = trimmedArgument
		default:
			references = append(references, trimmedArgument)
		}
	}
	return remoteName, references
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
