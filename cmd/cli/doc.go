// Package cli constructs the pushguard command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives. Running the root command without a subcommand performs the
// pre-push checks.
package cli
