package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	executableNotFoundTemplateConstant     = "%s not found on PATH"
)

// ExecutableNotFoundError reports that a command could not be resolved on PATH.
type ExecutableNotFoundError struct {
	Name CommandName
}

// Error describes the missing executable.
func (notFoundError ExecutableNotFoundError) Error() string {
	return fmt.Sprintf(executableNotFoundTemplateConstant, notFoundError.Name)
}

// Is reports whether target is exec.ErrNotFound so callers can match either form.
func (notFoundError ExecutableNotFoundError) Is(target error) bool {
	return target == exec.ErrNotFound
}

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// LookPath resolves the executable backing name.
func (runner *OSCommandRunner) LookPath(name CommandName) (string, error) {
	resolvedPath, lookupError := exec.LookPath(string(name))
	if lookupError != nil {
		return "", ExecutableNotFoundError{Name: name}
	}
	return resolvedPath, nil
}

// Run executes the supplied command and reports non-zero exit codes through the result rather than an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if runError == nil {
		return ExecutionResult{
			StandardOutput: standardOutputBuffer.String(),
			StandardError:  standardErrorBuffer.String(),
		}, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(runError, &exitError) {
		return ExecutionResult{
			StandardOutput: standardOutputBuffer.String(),
			StandardError:  standardErrorBuffer.String(),
			ExitCode:       exitError.ExitCode(),
		}, nil
	}

	if errors.Is(runError, exec.ErrNotFound) {
		return ExecutionResult{}, ExecutableNotFoundError{Name: command.Name}
	}

	return ExecutionResult{}, runError
}
