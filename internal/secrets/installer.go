package secrets

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/pushguard/internal/execshell"
)

const (
	// DefaultScannerVersion is the gitleaks release installed when none is configured.
	DefaultScannerVersion = "8.24.0"

	releaseURLTemplateConstant            = "https://github.com/gitleaks/gitleaks/releases/download/v%s/gitleaks_%s_%s_%s.tar.gz"
	archiveFileNameTemplateConstant       = "gitleaks_%s.tar.gz"
	temporaryDirectoryPrefixConstant      = "pushguard-gitleaks-"
	writableProbePatternConstant          = ".pushguard-probe-"
	scannerBinaryNameConstant             = "gitleaks"
	curlSilentFailFollowFlagsConstant     = "-sSfL"
	curlOutputFlagConstant                = "-o"
	installedBinaryPermissionsConstant    = 0o755
	installDirectoryPermissionsConstant   = 0o755
	installerNotConfiguredMessageConstant = "scanner installer dependencies not configured"
	noWritableDirectoryMessageConstant    = "no writable install directory"
	binaryMissingFromArchiveMessage       = "gitleaks binary not found in release archive"
	unsupportedPlatformTemplateConstant   = "unsupported platform %s/%s"
	downloadErrorTemplateConstant         = "download %s: %w"
	extractErrorTemplateConstant          = "extract %s: %w"
	installErrorTemplateConstant          = "install into %s: %w"
	scannerFoundLogMessageConstant        = "Secret scanner already installed"
	scannerInstalledLogMessageConstant    = "Secret scanner installed"
	installDirectorySkippedLogMessage     = "Install directory not writable"
	scannerPathLogFieldConstant           = "scanner_path"
	scannerVersionLogFieldConstant        = "scanner_version"
	installDirectoryLogFieldConstant      = "install_directory"
)

const createTruncateWriteFlags = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

// Errors surfaced by Installer.
var (
	ErrInstallerNotConfigured   = errors.New(installerNotConfiguredMessageConstant)
	ErrNoWritableDirectory      = errors.New(noWritableDirectoryMessageConstant)
	ErrBinaryMissingFromArchive = errors.New(binaryMissingFromArchiveMessage)
)

var (
	// Only platforms whose releases ship as .tar.gz.
	supportedOperatingSystems = map[string]string{
		"linux":  "linux",
		"darwin": "darwin",
	}
	architectureArchiveNames = map[string]string{
		"amd64": "x64",
		"386":   "x32",
		"arm64": "arm64",
		"arm":   "armv7",
	}
)

// Platform identifies the operating system and architecture in Go's naming.
type Platform struct {
	OperatingSystem string
	Architecture    string
}

// ReleaseURL returns the download URL of the gitleaks archive for version on platform.
func ReleaseURL(version string, platform Platform) (string, error) {
	operatingSystem, operatingSystemSupported := supportedOperatingSystems[platform.OperatingSystem]
	architecture, architectureSupported := architectureArchiveNames[platform.Architecture]
	if !operatingSystemSupported || !architectureSupported {
		return "", fmt.Errorf(unsupportedPlatformTemplateConstant, platform.OperatingSystem, platform.Architecture)
	}
	trimmedVersion := strings.TrimPrefix(strings.TrimSpace(version), "v")
	return fmt.Sprintf(releaseURLTemplateConstant, trimmedVersion, trimmedVersion, operatingSystem, architecture), nil
}

// CurlExecutor downloads files with curl.
type CurlExecutor interface {
	ExecuteCurl(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ExecutableLocator resolves executables on PATH.
type ExecutableLocator interface {
	LookPath(name execshell.CommandName) (string, error)
}

// InstallerOptions configures an installation.
type InstallerOptions struct {
	Version            string
	Platform           Platform
	InstallDirectories []string
}

// InstallResult describes where the scanner lives after Install.
type InstallResult struct {
	ScannerPath    string
	AlreadyPresent bool
}

// Installer makes gitleaks available, downloading a pinned release when it is not on PATH.
type Installer struct {
	logger     *zap.Logger
	downloader CurlExecutor
	locator    ExecutableLocator
	fileSystem afero.Fs
}

// NewInstaller constructs an Installer.
func NewInstaller(logger *zap.Logger, downloader CurlExecutor, locator ExecutableLocator, fileSystem afero.Fs) (*Installer, error) {
	if downloader == nil || locator == nil || fileSystem == nil {
		return nil, ErrInstallerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{logger: logger, downloader: downloader, locator: locator, fileSystem: fileSystem}, nil
}

// Install returns the existing scanner when one resolves on PATH, otherwise installs the configured release
// into the first writable directory of options.InstallDirectories.
func (installer *Installer) Install(executionContext context.Context, options InstallerOptions) (InstallResult, error) {
	if existingPath, lookupError := installer.locator.LookPath(execshell.CommandGitleaks); lookupError == nil {
		installer.logger.Info(scannerFoundLogMessageConstant, zap.String(scannerPathLogFieldConstant, existingPath))
		return InstallResult{ScannerPath: existingPath, AlreadyPresent: true}, nil
	}

	version := options.Version
	if len(strings.TrimSpace(version)) == 0 {
		version = DefaultScannerVersion
	}
	releaseURL, urlError := ReleaseURL(version, options.Platform)
	if urlError != nil {
		return InstallResult{}, urlError
	}

	installDirectory, directoryError := installer.selectInstallDirectory(options.InstallDirectories)
	if directoryError != nil {
		return InstallResult{}, directoryError
	}

	temporaryDirectory, temporaryDirectoryError := afero.TempDir(installer.fileSystem, "", temporaryDirectoryPrefixConstant)
	if temporaryDirectoryError != nil {
		return InstallResult{}, fmt.Errorf(downloadErrorTemplateConstant, releaseURL, temporaryDirectoryError)
	}
	defer installer.fileSystem.RemoveAll(temporaryDirectory)

	archivePath := filepath.Join(temporaryDirectory, fmt.Sprintf(archiveFileNameTemplateConstant, version))
	_, downloadError := installer.downloader.ExecuteCurl(executionContext, execshell.CommandDetails{
		Arguments: []string{curlSilentFailFollowFlagsConstant, curlOutputFlagConstant, archivePath, releaseURL},
	})
	if downloadError != nil {
		return InstallResult{}, fmt.Errorf(downloadErrorTemplateConstant, releaseURL, downloadError)
	}

	scannerPath := filepath.Join(installDirectory, scannerBinaryName(options.Platform))
	if extractError := installer.extractScanner(archivePath, scannerPath); extractError != nil {
		return InstallResult{}, fmt.Errorf(extractErrorTemplateConstant, archivePath, extractError)
	}

	installer.logger.Info(scannerInstalledLogMessageConstant,
		zap.String(scannerPathLogFieldConstant, scannerPath),
		zap.String(scannerVersionLogFieldConstant, version),
	)
	return InstallResult{ScannerPath: scannerPath}, nil
}

func (installer *Installer) selectInstallDirectory(candidateDirectories []string) (string, error) {
	for _, candidateDirectory := range candidateDirectories {
		trimmedDirectory := strings.TrimSpace(candidateDirectory)
		if len(trimmedDirectory) == 0 {
			continue
		}
		if probeError := installer.probeWritable(trimmedDirectory); probeError != nil {
			installer.logger.Debug(installDirectorySkippedLogMessage, zap.String(installDirectoryLogFieldConstant, trimmedDirectory), zap.Error(probeError))
			continue
		}
		return trimmedDirectory, nil
	}
	return "", ErrNoWritableDirectory
}

func (installer *Installer) probeWritable(directory string) error {
	if mkdirError := installer.fileSystem.MkdirAll(directory, installDirectoryPermissionsConstant); mkdirError != nil {
		return mkdirError
	}
	probeFile, probeError := afero.TempFile(installer.fileSystem, directory, writableProbePatternConstant)
	if probeError != nil {
		return probeError
	}
	probeName := probeFile.Name()
	probeFile.Close()
	return installer.fileSystem.Remove(probeName)
}

func (installer *Installer) extractScanner(archivePath string, destinationPath string) error {
	archiveFile, openError := installer.fileSystem.Open(archivePath)
	if openError != nil {
		return openError
	}
	defer archiveFile.Close()

	gzipReader, gzipError := gzip.NewReader(archiveFile)
	if gzipError != nil {
		return gzipError
	}
	defer gzipReader.Close()

	expectedName := path.Base(filepath.ToSlash(destinationPath))
	tarReader := tar.NewReader(gzipReader)
	for {
		header, headerError := tarReader.Next()
		if errors.Is(headerError, io.EOF) {
			return ErrBinaryMissingFromArchive
		}
		if headerError != nil {
			return headerError
		}
		if header.Typeflag != tar.TypeReg || path.Base(header.Name) != expectedName {
			continue
		}
		return installer.writeBinary(tarReader, destinationPath)
	}
}

func (installer *Installer) writeBinary(source io.Reader, destinationPath string) error {
	destinationFile, createError := installer.fileSystem.OpenFile(destinationPath, createTruncateWriteFlags, installedBinaryPermissionsConstant)
	if createError != nil {
		return fmt.Errorf(installErrorTemplateConstant, filepath.Dir(destinationPath), createError)
	}
	if _, copyError := io.Copy(destinationFile, source); copyError != nil {
		destinationFile.Close()
		return fmt.Errorf(installErrorTemplateConstant, filepath.Dir(destinationPath), copyError)
	}
	if closeError := destinationFile.Close(); closeError != nil {
		return fmt.Errorf(installErrorTemplateConstant, filepath.Dir(destinationPath), closeError)
	}
	return installer.fileSystem.Chmod(destinationPath, installedBinaryPermissionsConstant)
}

func scannerBinaryName(platform Platform) string {
	if platform.OperatingSystem == "windows" {
		return scannerBinaryNameConstant + ".exe"
	}
	return scannerBinaryNameConstant
}
