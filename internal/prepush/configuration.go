package prepush

import (
	"strings"

	"github.com/temirov/pushguard/internal/largefiles"
	"github.com/temirov/pushguard/internal/secrets"
)

const (
	defaultRepositoryPathConstant  = "."
	defaultRemoteNameConstant      = "origin"
	defaultSecretsFileNameConstant = ".env"
	defaultIgnoreFileNameConstant  = ".gitignore"

	configurationKeySeparatorConstant           = "."
	configurationRepositoryPathKeyConstant      = "repository_path"
	configurationRemoteKeyConstant              = "remote"
	configurationSecretsFileKeyConstant         = "secrets_file"
	configurationIgnoreFileKeyConstant          = "ignore_file"
	configurationScannerConfigKeyConstant       = "scanner_config_file"
	configurationTestPathPatternKeyConstant     = "test_path_pattern"
	configurationExceptionFilesKeyConstant      = "exception_files"
	configurationScanModeKeyConstant            = "scan_mode"
	configurationThresholdKeyConstant           = "large_file_threshold_bytes"
	configurationExcludedDirectoriesKeyConstant = "excluded_directories"
	configurationOutputKeyConstant              = "output"
)

// CommandConfiguration captures persistent settings for the pre-push checks.
type CommandConfiguration struct {
	RepositoryPath               string   `mapstructure:"repository_path"`
	RemoteName                   string   `mapstructure:"remote"`
	SecretsFileName              string   `mapstructure:"secrets_file"`
	IgnoreFileName               string   `mapstructure:"ignore_file"`
	ScannerConfigurationFileName string   `mapstructure:"scanner_config_file"`
	TestPathPattern              string   `mapstructure:"test_path_pattern"`
	ExceptionFiles               []string `mapstructure:"exception_files"`
	ScanMode                     string   `mapstructure:"scan_mode"`
	LargeFileThresholdBytes      int64    `mapstructure:"large_file_threshold_bytes"`
	ExcludedDirectories          []string `mapstructure:"excluded_directories"`
	Output                       string   `mapstructure:"output"`
}

// DefaultCommandConfiguration returns the baseline configuration for the pre-push checks.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:               defaultRepositoryPathConstant,
		RemoteName:                   defaultRemoteNameConstant,
		SecretsFileName:              defaultSecretsFileNameConstant,
		IgnoreFileName:               defaultIgnoreFileNameConstant,
		ScannerConfigurationFileName: secrets.DefaultConfigurationFileName,
		TestPathPattern:              secrets.DefaultTestPathPattern,
		ExceptionFiles:               []string{},
		ScanMode:                     string(secrets.ScanModeHistory),
		LargeFileThresholdBytes:      largefiles.DefaultThresholdBytes,
		ExcludedDirectories:          append([]string{}, largefiles.DefaultExcludedDirectories...),
		Output:                       string(OutputFormatText),
	}
}

// DefaultConfigurationValues returns viper defaults for the pre-push checks rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	key := func(name string) string {
		return rootKey + configurationKeySeparatorConstant + name
	}
	return map[string]any{
		key(configurationRepositoryPathKeyConstant):      defaults.RepositoryPath,
		key(configurationRemoteKeyConstant):              defaults.RemoteName,
		key(configurationSecretsFileKeyConstant):         defaults.SecretsFileName,
		key(configurationIgnoreFileKeyConstant):          defaults.IgnoreFileName,
		key(configurationScannerConfigKeyConstant):       defaults.ScannerConfigurationFileName,
		key(configurationTestPathPatternKeyConstant):     defaults.TestPathPattern,
		key(configurationExceptionFilesKeyConstant):      defaults.ExceptionFiles,
		key(configurationScanModeKeyConstant):            defaults.ScanMode,
		key(configurationThresholdKeyConstant):           defaults.LargeFileThresholdBytes,
		key(configurationExcludedDirectoriesKeyConstant): defaults.ExcludedDirectories,
		key(configurationOutputKeyConstant):              defaults.Output,
	}
}

// sanitize trims values and restores defaults for anything left empty.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.RepositoryPath = valueOrDefault(configuration.RepositoryPath, defaults.RepositoryPath)
	sanitized.RemoteName = valueOrDefault(configuration.RemoteName, defaults.RemoteName)
	sanitized.SecretsFileName = valueOrDefault(configuration.SecretsFileName, defaults.SecretsFileName)
	sanitized.IgnoreFileName = valueOrDefault(configuration.IgnoreFileName, defaults.IgnoreFileName)
	sanitized.ScannerConfigurationFileName = valueOrDefault(configuration.ScannerConfigurationFileName, defaults.ScannerConfigurationFileName)
	sanitized.TestPathPattern = valueOrDefault(configuration.TestPathPattern, defaults.TestPathPattern)
	sanitized.ExceptionFiles = trimEntries(configuration.ExceptionFiles)
	sanitized.ScanMode = strings.ToLower(valueOrDefault(configuration.ScanMode, defaults.ScanMode))
	sanitized.Output = strings.ToLower(valueOrDefault(configuration.Output, defaults.Output))

	if sanitized.LargeFileThresholdBytes <= 0 {
		sanitized.LargeFileThresholdBytes = defaults.LargeFileThresholdBytes
	}

	sanitized.ExcludedDirectories = trimEntries(configuration.ExcludedDirectories)
	if len(sanitized.ExcludedDirectories) == 0 {
		sanitized.ExcludedDirectories = defaults.ExcludedDirectories
	}

	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return defaultValue
	}
	return trimmed
}

func trimEntries(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
