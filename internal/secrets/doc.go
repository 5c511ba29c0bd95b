// Package secrets drives the gitleaks secret scanner.
//
// ConfigurationWriter regenerates the scanner configuration before every scan,
// Scanner runs gitleaks and decodes its JSON report from standard output, and
// Installer fetches a pinned gitleaks release when the binary is missing.
package secrets
