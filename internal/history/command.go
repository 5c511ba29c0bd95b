package history

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pushguard/internal/dependencies"
	"github.com/temirov/pushguard/internal/execshell"
	"github.com/temirov/pushguard/internal/ui"
	flagutils "github.com/temirov/pushguard/internal/utils/flags"
)

const (
	commandUseConstant              = "clean-history <new-remote-url>"
	commandShortDescriptionConstant = "Strip large files from history and force-push to a new remote"
	commandLongDescriptionConstant  = "clean-history rewrites the repository history with git-filter-repo, dropping blobs above the size limit and any listed paths, then points the remote at the new URL and force-pushes every branch and tag. The worktree must be clean apart from the untracked scanner configuration written by check."

	flagRemoteDescriptionConstant     = "Name of the remote to recreate"
	flagStripBlobsNameConstant        = "strip-blobs-bigger-than"
	flagStripBlobsDescriptionConstant = "Remove blobs larger than this many megabytes"
	flagPathNameConstant              = "path"
	flagPathDescriptionConstant       = "Path to remove from every commit (repeatable)"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted clean-history configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the clean-history command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	Executor                     dependencies.ShellExecutor
	RepositoryManager            RepositoryManager
	Prompter                     ConfirmationPrompter
}

// Build constructs the clean-history command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:          commandUseConstant,
		Short:        commandShortDescriptionConstant,
		Long:         commandLongDescriptionConstant,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	defaults := DefaultCommandConfiguration()
	executionFlags := flagutils.BindExecutionFlags(command, flagutils.ExecutionDefaults{})
	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, arguments, executionFlags)
	}
	var remoteValue string
	flagutils.BindRemoteFlag(command, &remoteValue, defaults.RemoteName, flagRemoteDescriptionConstant)
	command.Flags().Int(flagStripBlobsNameConstant, defaults.StripBlobsBiggerThanMegabytes, flagStripBlobsDescriptionConstant)
	command.Flags().StringSlice(flagPathNameConstant, nil, flagPathDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, executionFlags *flagutils.ExecutionFlagValues) error {
	options := builder.parseOptions(command, arguments, executionFlags)

	logger := builder.resolveLogger()
	executor, executorError := dependencies.ResolveShellExecutor(builder.Executor, logger, builder.resolveCommandEventsObserver(logger))
	if executorError != nil {
		return executorError
	}

	manager := builder.RepositoryManager
	if manager == nil {
		repositoryManager, managerError := dependencies.ResolveRepositoryManager(executor)
		if managerError != nil {
			return managerError
		}
		manager = repositoryManager
	}

	prompter := builder.Prompter
	if prompter == nil {
		prompter = NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
	}

	service, serviceError := NewService(logger, manager, executor, prompter, command.OutOrStdout())
	if serviceError != nil {
		return serviceError
	}
	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string, executionFlags *flagutils.ExecutionFlagValues) Options {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(flagutils.RemoteFlagName) {
		configuration.RemoteName, _ = flagSet.GetString(flagutils.RemoteFlagName)
	}
	if flagSet.Changed(flagStripBlobsNameConstant) {
		configuration.StripBlobsBiggerThanMegabytes, _ = flagSet.GetInt(flagStripBlobsNameConstant)
	}
	if flagSet.Changed(flagPathNameConstant) {
		configuration.RemovePaths, _ = flagSet.GetStringSlice(flagPathNameConstant)
	}
	configuration = configuration.sanitize()

	return Options{
		RepositoryPath:                configuration.RepositoryPath,
		RemoteName:                    configuration.RemoteName,
		RemoteURL:                     arguments[0],
		StripBlobsBiggerThanMegabytes: configuration.StripBlobsBiggerThanMegabytes,
		RemovePaths:                   configuration.RemovePaths,
		GeneratedFiles:                []string{configuration.ScannerConfigurationFileName},
		DryRun:                        executionFlags.DryRun,
		AssumeYes:                     executionFlags.AssumeYes,
	}
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveCommandEventsObserver(logger *zap.Logger) execshell.CommandEventObserver {
	if builder.HumanReadableLoggingProvider == nil || !builder.HumanReadableLoggingProvider() {
		return nil
	}
	return ui.NewConsoleCommandEventLogger(logger)
}
