package prepush

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pushguard/internal/dependencies"
	"github.com/temirov/pushguard/internal/execshell"
	"github.com/temirov/pushguard/internal/secrets"
	"github.com/temirov/pushguard/internal/ui"
	"github.com/temirov/pushguard/internal/utils"
	flagutils "github.com/temirov/pushguard/internal/utils/flags"
)

const (
	commandUseConstant              = "check"
	commandShortDescriptionConstant = "Run the pre-push hygiene checks"
	commandLongDescriptionConstant  = "check verifies the repository in the working directory is safe to push: remote, branch, merge conflicts, ignore file, leaked secrets, and large files."
	unexpectedArgumentsMessage      = "check does not accept positional arguments"

	flagOutputNameConstant        = "output"
	flagOutputDescriptionConstant = "Report format"
	flagRemoteDescriptionConstant = "Name of the remote that must be configured"
	flagScanModeNameConstant      = "scan-mode"
	flagScanModeDescription       = "What the secret scanner inspects"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessage)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted pre-push configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the Cobra command running the pre-push checks.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	Executor                     dependencies.ShellExecutor
	RepositoryInspector          RepositoryInspector
	SecretScanner                SecretScanner
	ConfigurationWriter          ScannerConfigurationWriter
	LargeFileFinder              LargeFileFinder
	FileSystem                   afero.Fs
	ColorizeOutput               *bool
}

// Build constructs the check command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:          commandUseConstant,
		Short:        commandShortDescriptionConstant,
		Long:         commandLongDescriptionConstant,
		RunE:         builder.Run,
		SilenceUsage: true,
	}
	builder.BindFlags(command)
	return command, nil
}

// BindFlags attaches the pre-push flags to command so the root command can run the checks directly.
func (builder *CommandBuilder) BindFlags(command *cobra.Command) {
	if command == nil {
		return
	}
	defaults := DefaultCommandConfiguration()

	var outputValue string
	flagutils.AddChoiceFlag(command.Flags(), &outputValue, flagOutputNameConstant, defaults.Output, OutputFormats(), flagOutputDescriptionConstant)

	var scanModeValue string
	scanModes := []string{string(secrets.ScanModeHistory), string(secrets.ScanModeDirectory)}
	flagutils.AddChoiceFlag(command.Flags(), &scanModeValue, flagScanModeNameConstant, defaults.ScanMode, scanModes, flagScanModeDescription)

	var remoteValue string
	flagutils.BindRemoteFlag(command, &remoteValue, defaults.RemoteName, flagRemoteDescriptionConstant)
}

// Run executes the checks and writes the report to the command output.
// ChecksFailedError is returned when at least one check failed.
func (builder *CommandBuilder) Run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration(command)
	outputFormat, formatError := ParseOutputFormat(configuration.Output)
	if formatError != nil {
		return formatError
	}

	logger := builder.resolveLogger()
	service, serviceError := builder.resolveService(logger, configuration)
	if serviceError != nil {
		return serviceError
	}

	options := CommandOptions{
		RunIdentifier:                builder.resolveRunIdentifier(command),
		RepositoryPath:               configuration.RepositoryPath,
		RemoteName:                   configuration.RemoteName,
		SecretsFileName:              configuration.SecretsFileName,
		IgnoreFileName:               configuration.IgnoreFileName,
		ScannerConfigurationFileName: configuration.ScannerConfigurationFileName,
		TestPathPattern:              configuration.TestPathPattern,
		ExceptionFiles:               configuration.ExceptionFiles,
		LargeFileThresholdBytes:      configuration.LargeFileThresholdBytes,
		ExcludedDirectories:          configuration.ExcludedDirectories,
	}

	renderer := NewReportRenderer(utils.NewFlushingWriter(command.OutOrStdout()), outputFormat, builder.resolveColorize())
	report, runError := service.Run(command.Context(), options, renderer.RenderCheck)
	if runError != nil {
		return runError
	}

	if renderError := renderer.RenderSummary(report); renderError != nil {
		return renderError
	}

	if !report.Passed() {
		return ChecksFailedError{FailCount: report.FailCount()}
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if value, changed := changedFlagValue(command, flagOutputNameConstant); changed {
		configuration.Output = value
	}
	if value, changed := changedFlagValue(command, flagScanModeNameConstant); changed {
		configuration.ScanMode = value
	}
	if value, changed := changedFlagValue(command, flagutils.RemoteFlagName); changed {
		configuration.RemoteName = value
	}

	return configuration.sanitize()
}

func changedFlagValue(command *cobra.Command, name string) (string, bool) {
	if command == nil {
		return "", false
	}
	flag := command.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return "", false
	}
	return strings.TrimSpace(flag.Value.String()), true
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

func (builder *CommandBuilder) resolveService(logger *zap.Logger, configuration CommandConfiguration) (*Service, error) {
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	inspector := builder.RepositoryInspector
	scanner := builder.SecretScanner
	if inspector == nil || scanner == nil {
		executor, executorError := dependencies.ResolveShellExecutor(builder.Executor, logger, builder.resolveCommandEventsObserver(logger))
		if executorError != nil {
			return nil, executorError
		}
		if inspector == nil {
			manager, managerError := dependencies.ResolveRepositoryManager(executor)
			if managerError != nil {
				return nil, managerError
			}
			inspector = manager
		}
		if scanner == nil {
			secretScanner, scannerError := dependencies.ResolveSecretScanner(executor, secrets.ScanMode(configuration.ScanMode))
			if scannerError != nil {
				return nil, scannerError
			}
			scanner = secretScanner
		}
	}

	configurationWriter := builder.ConfigurationWriter
	if configurationWriter == nil {
		configurationWriter = secrets.NewConfigurationWriter(fileSystem)
	}

	largeFileFinder := builder.LargeFileFinder
	if largeFileFinder == nil {
		largeFileFinder = dependencies.ResolveLargeFileFinder(fileSystem)
	}

	return NewService(logger, inspector, scanner, configurationWriter, largeFileFinder, fileSystem)
}

func (builder *CommandBuilder) resolveCommandEventsObserver(logger *zap.Logger) execshell.CommandEventObserver {
	if builder.HumanReadableLoggingProvider == nil || !builder.HumanReadableLoggingProvider() {
		return nil
	}
	return ui.NewConsoleCommandEventLogger(logger)
}

func (builder *CommandBuilder) resolveRunIdentifier(command *cobra.Command) string {
	if command != nil && command.Context() != nil {
		if runIdentifier, found := utils.NewCommandContextAccessor().RunIdentifier(command.Context()); found {
			return runIdentifier
		}
	}
	return uuid.NewString()
}

func (builder *CommandBuilder) resolveColorize() bool {
	if builder.ColorizeOutput != nil {
		return *builder.ColorizeOutput
	}
	return !color.NoColor
}
