package history

import (
	"strings"

	"github.com/temirov/pushguard/internal/secrets"
)

const (
	defaultRepositoryPathConstant        = "."
	defaultRemoteNameConstant            = "origin"
	defaultStripBlobsThresholdMBConstant = 50

	configurationKeySeparatorConstant      = "."
	configurationRepositoryPathKeyConstant = "repository_path"
	configurationRemoteKeyConstant         = "remote"
	configurationStripBlobsKeyConstant     = "strip_blobs_bigger_than_mb"
	configurationRemovePathsKeyConstant    = "remove_paths"
	configurationScannerConfigKeyConstant  = "scanner_config_file"
)

// CommandConfiguration captures persistent settings for the clean-history command.
type CommandConfiguration struct {
	RepositoryPath                string   `mapstructure:"repository_path"`
	RemoteName                    string   `mapstructure:"remote"`
	StripBlobsBiggerThanMegabytes int      `mapstructure:"strip_blobs_bigger_than_mb"`
	RemovePaths                   []string `mapstructure:"remove_paths"`
	ScannerConfigurationFileName  string   `mapstructure:"scanner_config_file"`
}

// DefaultCommandConfiguration returns the baseline configuration for clean-history.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:                defaultRepositoryPathConstant,
		RemoteName:                    defaultRemoteNameConstant,
		StripBlobsBiggerThanMegabytes: defaultStripBlobsThresholdMBConstant,
		RemovePaths:                   []string{},
		ScannerConfigurationFileName:  secrets.DefaultConfigurationFileName,
	}
}

// DefaultConfigurationValues returns viper defaults for clean-history rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationRepositoryPathKeyConstant: defaults.RepositoryPath,
		rootKey + configurationKeySeparatorConstant + configurationRemoteKeyConstant:         defaults.RemoteName,
		rootKey + configurationKeySeparatorConstant + configurationStripBlobsKeyConstant:     defaults.StripBlobsBiggerThanMegabytes,
		rootKey + configurationKeySeparatorConstant + configurationRemovePathsKeyConstant:    defaults.RemovePaths,
		rootKey + configurationKeySeparatorConstant + configurationScannerConfigKeyConstant:  defaults.ScannerConfigurationFileName,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaultRepositoryPathConstant
	}
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = defaultRemoteNameConstant
	}
	sanitized.ScannerConfigurationFileName = strings.TrimSpace(configuration.ScannerConfigurationFileName)
	if len(sanitized.ScannerConfigurationFileName) == 0 {
		sanitized.ScannerConfigurationFileName = secrets.DefaultConfigurationFileName
	}
	if sanitized.StripBlobsBiggerThanMegabytes <= 0 {
		sanitized.StripBlobsBiggerThanMegabytes = defaultStripBlobsThresholdMBConstant
	}

	sanitized.RemovePaths = make([]string, 0, len(configuration.RemovePaths))
	for _, candidate := range configuration.RemovePaths {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized.RemovePaths = append(sanitized.RemovePaths, trimmed)
	}

	return sanitized
}
