package prepush

import (
	"context"

	"github.com/temirov/pushguard/internal/largefiles"
	"github.com/temirov/pushguard/internal/secrets"
)

// RepositoryInspector exposes the git probes the checks rely on.
type RepositoryInspector interface {
	IsInsideWorkTree(executionContext context.Context, repositoryPath string) (bool, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, bool, error)
	ListUnmergedPaths(executionContext context.Context, repositoryPath string) ([]string, error)
}

// SecretScanner scans a directory for leaked credentials.
type SecretScanner interface {
	Scan(executionContext context.Context, targetDirectory string, configurationFile string) (secrets.ScanReport, error)
}

// ScannerConfigurationWriter writes the scanner configuration file.
type ScannerConfigurationWriter interface {
	Write(configurationPath string, template secrets.ConfigurationTemplate) error
}

// LargeFileFinder locates oversized files in a working tree.
type LargeFileFinder interface {
	FindFilesOverSize(root string, thresholdBytes int64, excludedDirectories []string) ([]largefiles.OversizedFile, error)
}
