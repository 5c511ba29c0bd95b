package prepush

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandConfigurationSanitizeRestoresDefaults(testInstance *testing.T) {
	sanitized := CommandConfiguration{
		RemoteName:          "  upstream ",
		ExceptionFiles:      []string{" fixtures/key.pem ", "", "  "},
		ScanMode:            "DIRECTORY",
		Output:              " YAML",
		ExcludedDirectories: []string{"  "},
	}.sanitize()

	defaults := DefaultCommandConfiguration()
	require.Equal(testInstance, ".", sanitized.RepositoryPath)
	require.Equal(testInstance, "upstream", sanitized.RemoteName)
	require.Equal(testInstance, ".env", sanitized.SecretsFileName)
	require.Equal(testInstance, ".gitignore", sanitized.IgnoreFileName)
	require.Equal(testInstance, ".gitleaks.toml", sanitized.ScannerConfigurationFileName)
	require.Equal(testInstance, defaults.TestPathPattern, sanitized.TestPathPattern)
	require.Equal(testInstance, []string{"fixtures/key.pem"}, sanitized.ExceptionFiles)
	require.Equal(testInstance, "directory", sanitized.ScanMode)
	require.Equal(testInstance, "yaml", sanitized.Output)
	require.Equal(testInstance, int64(52428800), sanitized.LargeFileThresholdBytes)
	require.Equal(testInstance, defaults.ExcludedDirectories, sanitized.ExcludedDirectories)
}

func TestDefaultConfigurationValuesUsesRootKey(testInstance *testing.T) {
	values := DefaultConfigurationValues("tools.prepush")

	require.Len(testInstance, values, 11)
	require.Equal(testInstance, "origin", values["tools.prepush.remote"])
	require.Equal(testInstance, int64(52428800), values["tools.prepush.large_file_threshold_bytes"])
	require.Equal(testInstance, "text", values["tools.prepush.output"])
	require.Equal(testInstance, "history", values["tools.prepush.scan_mode"])
}
