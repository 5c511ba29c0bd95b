package secrets

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

const (
	// DefaultConfigurationFileName is the scanner configuration written at the repository root.
	DefaultConfigurationFileName = ".gitleaks.toml"
	// DefaultTestPathPattern allow-lists fixtures under test directories.
	DefaultTestPathPattern = `(^|/)(test|tests|testdata)/`

	configurationTitleConstant            = "pushguard generated configuration"
	allowlistDescriptionConstant          = "paths excluded by pushguard"
	configurationFilePermissionsConstant  = 0o644
	anchoredPathPatternTemplateConstant   = `(^|/)%s$`
	configurationEncodeErrorTemplate      = "encode scanner configuration: %w"
	configurationWriteErrorTemplate       = "write scanner configuration %s: %w"
	configurationPatternErrorTemplate     = "invalid test path pattern %q: %w"
	configurationHeaderCommentConstant    = "# Generated by pushguard before every scan. Local edits are overwritten.\n"
	configurationDirectoryPermissionsMode = 0o755
)

// ConfigurationTemplate describes the allow-list written into the scanner configuration.
type ConfigurationTemplate struct {
	SecretsFileName string
	TestPathPattern string
	ExceptionFiles  []string
}

type scannerConfigurationDocument struct {
	Title     string                        `toml:"title"`
	Extend    scannerExtendSection          `toml:"extend"`
	Allowlist scannerConfigurationAllowlist `toml:"allowlist"`
}

type scannerExtendSection struct {
	UseDefault bool `toml:"useDefault"`
}

type scannerConfigurationAllowlist struct {
	Description string   `toml:"description"`
	Paths       []string `toml:"paths"`
}

// ConfigurationWriter renders the scanner configuration onto a filesystem.
type ConfigurationWriter struct {
	fileSystem afero.Fs
}

// NewConfigurationWriter constructs a ConfigurationWriter. A nil filesystem selects the operating system.
func NewConfigurationWriter(fileSystem afero.Fs) *ConfigurationWriter {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &ConfigurationWriter{fileSystem: fileSystem}
}

// Render produces the TOML document for template.
func (writer *ConfigurationWriter) Render(template ConfigurationTemplate) ([]byte, error) {
	allowedPaths, patternError := buildAllowedPathPatterns(template)
	if patternError != nil {
		return nil, patternError
	}

	document := scannerConfigurationDocument{
		Title:  configurationTitleConstant,
		Extend: scannerExtendSection{UseDefault: true},
		Allowlist: scannerConfigurationAllowlist{
			Description: allowlistDescriptionConstant,
			Paths:       allowedPaths,
		},
	}

	var buffer bytes.Buffer
	buffer.WriteString(configurationHeaderCommentConstant)
	if encodeError := toml.NewEncoder(&buffer).Encode(document); encodeError != nil {
		return nil, fmt.Errorf(configurationEncodeErrorTemplate, encodeError)
	}
	return buffer.Bytes(), nil
}

// Write overwrites configurationPath with the rendered template.
func (writer *ConfigurationWriter) Write(configurationPath string, template ConfigurationTemplate) error {
	renderedConfiguration, renderError := writer.Render(template)
	if renderError != nil {
		return renderError
	}

	if mkdirError := writer.fileSystem.MkdirAll(filepath.Dir(configurationPath), configurationDirectoryPermissionsMode); mkdirError != nil {
		return fmt.Errorf(configurationWriteErrorTemplate, configurationPath, mkdirError)
	}
	if writeError := afero.WriteFile(writer.fileSystem, configurationPath, renderedConfiguration, configurationFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(configurationWriteErrorTemplate, configurationPath, writeError)
	}
	return nil
}

func buildAllowedPathPatterns(template ConfigurationTemplate) ([]string, error) {
	patterns := make([]string, 0, len(template.ExceptionFiles)+2)
	seenPatterns := make(map[string]struct{})
	appendPattern := func(pattern string) {
		if _, seen := seenPatterns[pattern]; seen {
			return
		}
		seenPatterns[pattern] = struct{}{}
		patterns = append(patterns, pattern)
	}

	if secretsFileName := strings.TrimSpace(template.SecretsFileName); len(secretsFileName) > 0 {
		appendPattern(anchoredPathPattern(secretsFileName))
	}

	if testPathPattern := strings.TrimSpace(template.TestPathPattern); len(testPathPattern) > 0 {
		if _, compileError := regexp.Compile(testPathPattern); compileError != nil {
			return nil, fmt.Errorf(configurationPatternErrorTemplate, testPathPattern, compileError)
		}
		appendPattern(testPathPattern)
	}

	for _, exceptionFile := range template.ExceptionFiles {
		trimmedExceptionFile := strings.TrimSpace(exceptionFile)
		if len(trimmedExceptionFile) == 0 {
			continue
		}
		appendPattern(anchoredPathPattern(filepath.ToSlash(trimmedExceptionFile)))
	}

	return patterns, nil
}

func anchoredPathPattern(relativePath string) string {
	return fmt.Sprintf(anchoredPathPatternTemplateConstant, regexp.QuoteMeta(strings.TrimPrefix(relativePath, "./")))
}
