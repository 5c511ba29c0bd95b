// Package scannerinstall provides the install-scanner command, which makes gitleaks available on the local machine.
package scannerinstall
