package scannerinstall

import (
	"strings"

	"github.com/temirov/pushguard/internal/secrets"
)

const (
	configurationKeySeparatorConstant          = "."
	configurationVersionKeyConstant            = "version"
	configurationInstallDirectoriesKeyConstant = "install_directories"
	systemInstallDirectoryConstant             = "/usr/local/bin"
	userInstallDirectoryConstant               = "~/.local/bin"
)

// CommandConfiguration captures persistent settings for install-scanner.
type CommandConfiguration struct {
	Version            string   `mapstructure:"version"`
	InstallDirectories []string `mapstructure:"install_directories"`
}

// DefaultCommandConfiguration returns the pinned release and the system then user install locations.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Version:            secrets.DefaultScannerVersion,
		InstallDirectories: []string{systemInstallDirectoryConstant, userInstallDirectoryConstant},
	}
}

// DefaultConfigurationValues returns viper defaults for install-scanner rooted at rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationVersionKeyConstant:            defaults.Version,
		rootKey + configurationKeySeparatorConstant + configurationInstallDirectoriesKeyConstant: defaults.InstallDirectories,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.Version = strings.TrimPrefix(strings.TrimSpace(configuration.Version), "v")
	if len(sanitized.Version) == 0 {
		sanitized.Version = defaults.Version
	}

	sanitized.InstallDirectories = make([]string, 0, len(configuration.InstallDirectories))
	for _, candidate := range configuration.InstallDirectories {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized.InstallDirectories = append(sanitized.InstallDirectories, trimmed)
	}
	if len(sanitized.InstallDirectories) == 0 {
		sanitized.InstallDirectories = defaults.InstallDirectories
	}

	return sanitized
}
