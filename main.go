package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/pushguard/cmd/cli"
	"github.com/temirov/pushguard/internal/prepush"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the pushguard command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		var checksFailedError prepush.ChecksFailedError
		if !errors.As(executionError, &checksFailedError) {
			fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		}
		os.Exit(1)
	}
}
