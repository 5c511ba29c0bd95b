// Package flags provides helpers for binding standardized execution flags to Cobra commands.
package flags

import "github.com/spf13/cobra"

const (
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Print the planned operations without running them"
	// AssumeYesFlagName exposes the shared assume-yes flag name.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand provides the shorthand for the assume-yes flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the shared assume-yes flag purpose.
	AssumeYesFlagUsage = "Automatically confirm prompts"
	// RemoteFlagName exposes the shared remote flag name.
	RemoteFlagName = "remote"
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	DryRun    bool
	AssumeYes bool
}

// ExecutionFlagValues receives the parsed execution flags.
type ExecutionFlagValues struct {
	DryRun    bool
	AssumeYes bool
}

// BindExecutionFlags attaches the dry-run and assume-yes toggles to the provided command.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults) *ExecutionFlagValues {
	values := &ExecutionFlagValues{}
	if command == nil {
		return values
	}

	AddToggleFlag(command.Flags(), &values.DryRun, DryRunFlagName, "", defaults.DryRun, DryRunFlagUsage)
	AddToggleFlag(command.Flags(), &values.AssumeYes, AssumeYesFlagName, AssumeYesFlagShorthand, defaults.AssumeYes, AssumeYesFlagUsage)
	return values
}

// BindRemoteFlag attaches the remote name flag to the provided command.
func BindRemoteFlag(command *cobra.Command, target *string, defaultValue string, usage string) {
	if command == nil {
		return
	}
	if command.Flags().Lookup(RemoteFlagName) == nil {
		command.Flags().StringVar(target, RemoteFlagName, defaultValue, usage)
	}
}
