package secrets_test

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/pushguard/internal/secrets"
)

const testConfigurationPathConstant = "/workspace/project/.gitleaks.toml"

type decodedScannerConfiguration struct {
	Extend struct {
		UseDefault bool `toml:"useDefault"`
	} `toml:"extend"`
	Allowlist struct {
		Paths []string `toml:"paths"`
	} `toml:"allowlist"`
}

func TestConfigurationWriterWritesAllowlist(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writer := secrets.NewConfigurationWriter(fileSystem)

	writeError := writer.Write(testConfigurationPathConstant, secrets.ConfigurationTemplate{
		SecretsFileName: ".env",
		TestPathPattern: secrets.DefaultTestPathPattern,
		ExceptionFiles:  []string{"./docs/sample.key", " ", "docs/sample.key"},
	})
	require.NoError(testInstance, writeError)

	content, readError := afero.ReadFile(fileSystem, testConfigurationPathConstant)
	require.NoError(testInstance, readError)

	decoded := decodedScannerConfiguration{}
	_, decodeError := toml.Decode(string(content), &decoded)
	require.NoError(testInstance, decodeError)
	require.True(testInstance, decoded.Extend.UseDefault)
	require.Equal(testInstance, []string{
		`(^|/)\.env$`,
		secrets.DefaultTestPathPattern,
		`(^|/)docs/sample\.key$`,
	}, decoded.Allowlist.Paths)
}

func TestConfigurationWriterOverwritesExistingFile(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, testConfigurationPathConstant, []byte("[allowlist]\npaths = ['.*']\n"), 0o644))

	writer := secrets.NewConfigurationWriter(fileSystem)
	require.NoError(testInstance, writer.Write(testConfigurationPathConstant, secrets.ConfigurationTemplate{SecretsFileName: ".env"}))

	content, readError := afero.ReadFile(fileSystem, testConfigurationPathConstant)
	require.NoError(testInstance, readError)
	require.NotContains(testInstance, string(content), "'.*'")
	require.Contains(testInstance, string(content), "useDefault = true")
}

func TestConfigurationWriterRejectsInvalidTestPattern(testInstance *testing.T) {
	writer := secrets.NewConfigurationWriter(afero.NewMemMapFs())
	writeError := writer.Write(testConfigurationPathConstant, secrets.ConfigurationTemplate{TestPathPattern: "("})
	require.Error(testInstance, writeError)
}

func TestConfigurationWriterReportsWriteFailure(testInstance *testing.T) {
	writer := secrets.NewConfigurationWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	writeError := writer.Write(testConfigurationPathConstant, secrets.ConfigurationTemplate{SecretsFileName: ".env"})
	require.Error(testInstance, writeError)
	require.Contains(testInstance, writeError.Error(), testConfigurationPathConstant)
}
