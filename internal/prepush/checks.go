package prepush

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/temirov/pushguard/internal/gitrepo"
	"github.com/temirov/pushguard/internal/secrets"
)

const (
	remoteDetailTemplateConstant           = "%s -> %s"
	remoteOwnerDetailTemplateConstant      = "%s -> %s (%s)"
	remoteMissingTemplateConstant          = "remote %s not configured"
	remoteLookupFailedTemplateConstant     = "remote %s could not be read: %v"
	branchDetachedMessageConstant          = "detached HEAD"
	branchLookupFailedTemplateConstant     = "branch could not be determined: %v"
	conflictsCleanMessageConstant          = "no unmerged paths"
	conflictsFoundTemplateConstant         = "%d unmerged path(s)"
	conflictsLookupFailedTemplateConstant  = "unmerged paths could not be listed: %v"
	ignoreFileListedTemplateConstant       = "%s lists %s"
	ignoreFileMissingTemplateConstant      = "%s not found"
	ignoreFileUnlistedTemplateConstant     = "%s does not list %s"
	ignoreFileReadFailedTemplateConstant   = "%s could not be read: %v"
	ignoreFileExposureTemplateConstant     = "%s; %s would expose %d key(s)"
	secretsCleanMessageConstant            = "no leaks found"
	secretsFoundTemplateConstant           = "%d leak(s) found"
	secretsDegradedMessageConstant         = "scanner degraded"
	secretsInstallHintMessageConstant      = "install the scanner with: pushguard install-scanner"
	largeFilesCleanTemplateConstant        = "no files over %s"
	largeFilesFoundTemplateConstant        = "%d file(s) over %s"
	largeFileLineTemplateConstant          = "%s (%s)"
	largeFilesLookupFailedTemplateConstant = "working tree could not be walked: %v"
	mebibyteSizeTemplateConstant           = "%.1f MiB"
	bytesPerMebibyteConstant               = 1024 * 1024
	lineSeparatorConstant                  = "\n"
)

func (service *Service) checkRemote(executionContext context.Context, options CommandOptions) (CheckResult, error) {
	remoteURL, lookupError := service.inspector.GetRemoteURL(executionContext, options.RepositoryPath, options.RemoteName)
	if lookupError != nil {
		if errors.Is(lookupError, gitrepo.ErrRemoteNotFound) {
			return failed(CheckNameRemote, fmt.Sprintf(remoteMissingTemplateConstant, options.RemoteName)), nil
		}
		return failed(CheckNameRemote, fmt.Sprintf(remoteLookupFailedTemplateConstant, options.RemoteName, lookupError)), nil
	}

	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		return passed(CheckNameRemote, fmt.Sprintf(remoteDetailTemplateConstant, options.RemoteName, remoteURL)), nil
	}
	return passed(CheckNameRemote, fmt.Sprintf(remoteOwnerDetailTemplateConstant, options.RemoteName, remoteURL, parsedRemote.OwnerRepository())), nil
}

func (service *Service) checkBranch(executionContext context.Context, options CommandOptions) (CheckResult, error) {
	branchName, detached, branchError := service.inspector.GetCurrentBranch(executionContext, options.RepositoryPath)
	if branchError != nil {
		return failed(CheckNameBranch, fmt.Sprintf(branchLookupFailedTemplateConstant, branchError)), nil
	}
	if detached {
		return failed(CheckNameBranch, branchDetachedMessageConstant), nil
	}
	return passed(CheckNameBranch, branchName), nil
}

func (service *Service) checkConflicts(executionContext context.Context, options CommandOptions) (CheckResult, error) {
	unmergedPaths, listError := service.inspector.ListUnmergedPaths(executionContext, options.RepositoryPath)
	if listError != nil {
		return failed(CheckNameConflicts, fmt.Sprintf(conflictsLookupFailedTemplateConstant, listError)), nil
	}
	if len(unmergedPaths) == 0 {
		return passed(CheckNameConflicts, conflictsCleanMessageConstant), nil
	}

	result := failed(CheckNameConflicts, fmt.Sprintf(conflictsFoundTemplateConstant, len(unmergedPaths)))
	result.Lines = append([]string{}, unmergedPaths...)
	return result, nil
}

func (service *Service) checkIgnoreFile(_ context.Context, options CommandOptions) (CheckResult, error) {
	ignoreFilePath := resolveRepositoryFile(options.RepositoryPath, options.IgnoreFileName)

	contents, readError := afero.ReadFile(service.fileSystem, ignoreFilePath)
	if readError != nil {
		var detail string
		if errors.Is(readError, os.ErrNotExist) {
			detail = fmt.Sprintf(ignoreFileMissingTemplateConstant, options.IgnoreFileName)
		} else {
			detail = fmt.Sprintf(ignoreFileReadFailedTemplateConstant, options.IgnoreFileName, readError)
		}
		return failed(CheckNameIgnoreFile, service.withExposure(detail, options)), nil
	}

	if containsExactLine(string(contents), options.SecretsFileName) {
		return passed(CheckNameIgnoreFile, fmt.Sprintf(ignoreFileListedTemplateConstant, options.IgnoreFileName, options.SecretsFileName)), nil
	}

	detail := fmt.Sprintf(ignoreFileUnlistedTemplateConstant, options.IgnoreFileName, options.SecretsFileName)
	return failed(CheckNameIgnoreFile, service.withExposure(detail, options)), nil
}

// withExposure appends how many keys the unignored secrets file holds, when it exists and parses.
func (service *Service) withExposure(detail string, options CommandOptions) string {
	secretsFile, openError := service.fileSystem.Open(resolveRepositoryFile(options.RepositoryPath, options.SecretsFileName))
	if openError != nil {
		return detail
	}
	defer secretsFile.Close()

	entries, parseError := godotenv.Parse(secretsFile)
	if parseError != nil || len(entries) == 0 {
		return detail
	}
	return fmt.Sprintf(ignoreFileExposureTemplateConstant, detail, options.SecretsFileName, len(entries))
}

func (service *Service) checkSecrets(executionContext context.Context, options CommandOptions) (CheckResult, error) {
	configurationPath := resolveRepositoryFile(options.RepositoryPath, options.ScannerConfigurationFileName)
	template := secrets.ConfigurationTemplate{
		SecretsFileName: options.SecretsFileName,
		TestPathPattern: options.TestPathPattern,
		ExceptionFiles:  options.ExceptionFiles,
	}
	if writeError := service.configurationWriter.Write(configurationPath, template); writeError != nil {
		return CheckResult{}, ScannerConfigurationError{Path: configurationPath, Cause: writeError}
	}

	scanReport, scanError := service.scanner.Scan(executionContext, options.RepositoryPath, configurationPath)
	if scanError != nil {
		result := CheckResult{Name: CheckNameSecrets, Verdict: VerdictWarn, Detail: secretsDegradedMessageConstant, Lines: []string{scanError.Error()}}
		if errors.Is(scanError, exec.ErrNotFound) {
			result.Lines = append(result.Lines, secretsInstallHintMessageConstant)
		}
		return result, nil
	}

	if len(scanReport.Findings) == 0 {
		return passed(CheckNameSecrets, secretsCleanMessageConstant), nil
	}

	result := failed(CheckNameSecrets, fmt.Sprintf(secretsFoundTemplateConstant, len(scanReport.Findings)))
	result.Lines = make([]string, 0, len(scanReport.Findings))
	for _, finding := range scanReport.Findings {
		result.Lines = append(result.Lines, finding.Location())
	}
	return result, nil
}

func (service *Service) checkLargeFiles(_ context.Context, options CommandOptions) (CheckResult, error) {
	thresholdLabel := formatMebibytes(options.LargeFileThresholdBytes)

	oversizedFiles, findError := service.largeFileFinder.FindFilesOverSize(options.RepositoryPath, options.LargeFileThresholdBytes, options.ExcludedDirectories)
	if findError != nil {
		return failed(CheckNameLargeFiles, fmt.Sprintf(largeFilesLookupFailedTemplateConstant, findError)), nil
	}
	if len(oversizedFiles) == 0 {
		return passed(CheckNameLargeFiles, fmt.Sprintf(largeFilesCleanTemplateConstant, thresholdLabel)), nil
	}

	result := failed(CheckNameLargeFiles, fmt.Sprintf(largeFilesFoundTemplateConstant, len(oversizedFiles), thresholdLabel))
	result.Lines = make([]string, 0, len(oversizedFiles))
	for _, oversizedFile := range oversizedFiles {
		result.Lines = append(result.Lines, fmt.Sprintf(largeFileLineTemplateConstant, oversizedFile.Path, formatMebibytes(oversizedFile.SizeBytes)))
	}
	return result, nil
}

func passed(name string, detail string) CheckResult {
	return CheckResult{Name: name, Verdict: VerdictPass, Detail: detail}
}

func failed(name string, detail string) CheckResult {
	return CheckResult{Name: name, Verdict: VerdictFail, Detail: detail}
}

func resolveRepositoryFile(repositoryPath string, fileName string) string {
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return filepath.Join(repositoryPath, fileName)
}

// containsExactLine reports whether any whitespace-trimmed line of contents equals expected.
func containsExactLine(contents string, expected string) bool {
	for _, line := range strings.Split(contents, lineSeparatorConstant) {
		if strings.TrimSpace(line) == expected {
			return true
		}
	}
	return false
}

func formatMebibytes(sizeBytes int64) string {
	return fmt.Sprintf(mebibyteSizeTemplateConstant, float64(sizeBytes)/bytesPerMebibyteConstant)
}
