package prepush

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	runIdentifierLogFieldConstant  = "run_id"
	checkNameLogFieldConstant      = "check"
	checkVerdictLogFieldConstant   = "verdict"
	checkDetailLogFieldConstant    = "detail"
	repositoryPathLogFieldConstant = "repository_path"
	failCountLogFieldConstant      = "fail_count"
	warnCountLogFieldConstant      = "warn_count"

	runStartedMessageConstant       = "pre-push checks started"
	runAbortedMessageConstant       = "pre-push checks aborted"
	checkCompletedMessageConstant   = "check completed"
	runCompletedMessageConstant     = "pre-push checks completed"
	inspectorMissingMessageConstant = "repository inspector not configured"
	scannerMissingMessageConstant   = "secret scanner not configured"
	writerMissingMessageConstant    = "scanner configuration writer not configured"
	finderMissingMessageConstant    = "large file finder not configured"
)

// Errors returned when the service is constructed without collaborators.
var (
	ErrRepositoryInspectorNotConfigured = errors.New(inspectorMissingMessageConstant)
	ErrSecretScannerNotConfigured       = errors.New(scannerMissingMessageConstant)
	ErrConfigurationWriterNotConfigured = errors.New(writerMissingMessageConstant)
	ErrLargeFileFinderNotConfigured     = errors.New(finderMissingMessageConstant)
)

// Service runs the repository gate followed by the pre-push checks.
type Service struct {
	logger              *zap.Logger
	inspector           RepositoryInspector
	scanner             SecretScanner
	configurationWriter ScannerConfigurationWriter
	largeFileFinder     LargeFileFinder
	fileSystem          afero.Fs
}

// NewService constructs a Service. A nil logger disables logging and a nil filesystem selects the operating system.
func NewService(logger *zap.Logger, inspector RepositoryInspector, scanner SecretScanner, configurationWriter ScannerConfigurationWriter, largeFileFinder LargeFileFinder, fileSystem afero.Fs) (*Service, error) {
	if inspector == nil {
		return nil, ErrRepositoryInspectorNotConfigured
	}
	if scanner == nil {
		return nil, ErrSecretScannerNotConfigured
	}
	if configurationWriter == nil {
		return nil, ErrConfigurationWriterNotConfigured
	}
	if largeFileFinder == nil {
		return nil, ErrLargeFileFinderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Service{
		logger:              logger,
		inspector:           inspector,
		scanner:             scanner,
		configurationWriter: configurationWriter,
		largeFileFinder:     largeFileFinder,
		fileSystem:          fileSystem,
	}, nil
}

type checkFunction func(executionContext context.Context, options CommandOptions) (CheckResult, error)

// Run executes the gate and then every check in order. The returned error is fatal: either
// RepositoryRequiredError from the gate or ScannerConfigurationError from the secrets check.
// Failed checks are reported through the RunReport, never as an error.
func (service *Service) Run(executionContext context.Context, options CommandOptions, observer ResultObserver) (RunReport, error) {
	if observer == nil {
		observer = func(CheckResult) {}
	}
	runLogger := service.logger.With(
		zap.String(runIdentifierLogFieldConstant, options.RunIdentifier),
		zap.String(repositoryPathLogFieldConstant, options.RepositoryPath),
	)
	runLogger.Debug(runStartedMessageConstant)

	report := RunReport{RunIdentifier: options.RunIdentifier, Checks: make([]CheckResult, 0, 6)}

	if gateError := service.requireRepository(executionContext, options); gateError != nil {
		runLogger.Error(runAbortedMessageConstant, zap.Error(gateError))
		return report, gateError
	}

	checks := []checkFunction{
		service.checkRemote,
		service.checkBranch,
		service.checkConflicts,
		service.checkIgnoreFile,
		service.checkSecrets,
		service.checkLargeFiles,
	}

	for _, check := range checks {
		result, fatalError := check(executionContext, options)
		if fatalError != nil {
			runLogger.Error(runAbortedMessageConstant, zap.Error(fatalError))
			return report, fatalError
		}

		runLogger.Debug(checkCompletedMessageConstant,
			zap.String(checkNameLogFieldConstant, result.Name),
			zap.String(checkVerdictLogFieldConstant, string(result.Verdict)),
			zap.String(checkDetailLogFieldConstant, result.Detail),
		)
		report.Checks = append(report.Checks, result)
		observer(result)
	}

	runLogger.Info(runCompletedMessageConstant,
		zap.Int(failCountLogFieldConstant, report.FailCount()),
		zap.Int(warnCountLogFieldConstant, report.WarnCount()),
	)
	return report, nil
}

func (service *Service) requireRepository(executionContext context.Context, options CommandOptions) error {
	insideWorkTree, probeError := service.inspector.IsInsideWorkTree(executionContext, options.RepositoryPath)
	if probeError != nil {
		return RepositoryRequiredError{Path: options.RepositoryPath, Cause: probeError}
	}
	if !insideWorkTree {
		return RepositoryRequiredError{Path: options.RepositoryPath}
	}
	return nil
}
