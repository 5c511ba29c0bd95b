package scannerinstall

import (
	"fmt"
	"runtime"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pushguard/internal/dependencies"
	"github.com/temirov/pushguard/internal/execshell"
	"github.com/temirov/pushguard/internal/secrets"
	"github.com/temirov/pushguard/internal/ui"
	pathutils "github.com/temirov/pushguard/internal/utils/path"
)

const (
	commandUseConstant              = "install-scanner"
	commandShortDescriptionConstant = "Install the gitleaks secret scanner"
	commandLongDescriptionConstant  = "install-scanner reports gitleaks when it is already on PATH; otherwise it downloads the pinned release and installs it into the first writable install directory."

	flagVersionNameConstant           = "scanner-version"
	flagVersionDescriptionConstant    = "gitleaks release to install"
	flagInstallDirNameConstant        = "install-dir"
	flagInstallDirDescriptionConstant = "Candidate install directory, tried in order (repeatable)"
	alreadyInstalledTemplateConstant  = "gitleaks already installed at %s\n"
	installedTemplateConstant         = "Installed gitleaks %s to %s\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted install-scanner configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the install-scanner command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	Executor                     dependencies.ShellExecutor
	Locator                      secrets.ExecutableLocator
	FileSystem                   afero.Fs
	HomeExpander                 *pathutils.HomeExpander
	Platform                     *secrets.Platform
}

// Build constructs the install-scanner command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:          commandUseConstant,
		Short:        commandShortDescriptionConstant,
		Long:         commandLongDescriptionConstant,
		Args:         cobra.NoArgs,
		RunE:         builder.run,
		SilenceUsage: true,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(flagVersionNameConstant, defaults.Version, flagVersionDescriptionConstant)
	command.Flags().StringSlice(flagInstallDirNameConstant, nil, flagInstallDirDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()

	executor, executorError := dependencies.ResolveShellExecutor(builder.Executor, logger, builder.resolveCommandEventsObserver(logger))
	if executorError != nil {
		return executorError
	}

	installer, installerError := secrets.NewInstaller(logger, executor, dependencies.ResolveExecutableLocator(builder.Locator), dependencies.ResolveFileSystem(builder.FileSystem))
	if installerError != nil {
		return installerError
	}

	homeExpander := builder.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}
	installDirectories := make([]string, 0, len(configuration.InstallDirectories))
	for _, installDirectory := range configuration.InstallDirectories {
		installDirectories = append(installDirectories, homeExpander.Expand(installDirectory))
	}

	result, installError := installer.Install(command.Context(), secrets.InstallerOptions{
		Version:            configuration.Version,
		Platform:           builder.resolvePlatform(),
		InstallDirectories: installDirectories,
	})
	if installError != nil {
		return installError
	}

	if result.AlreadyPresent {
		_, writeError := fmt.Fprintf(command.OutOrStdout(), alreadyInstalledTemplateConstant, result.ScannerPath)
		return writeError
	}
	_, writeError := fmt.Fprintf(command.OutOrStdout(), installedTemplateConstant, configuration.Version, result.ScannerPath)
	return writeError
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(flagVersionNameConstant) {
		configuration.Version, _ = flagSet.GetString(flagVersionNameConstant)
	}
	if flagSet.Changed(flagInstallDirNameConstant) {
		configuration.InstallDirectories, _ = flagSet.GetStringSlice(flagInstallDirNameConstant)
	}
	return configuration.sanitize()
}

func (builder *CommandBuilder) resolvePlatform() secrets.Platform {
	if builder.Platform != nil {
		return *builder.Platform
	}
	return secrets.Platform{OperatingSystem: runtime.GOOS, Architecture: runtime.GOARCH}
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
