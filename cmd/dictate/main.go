package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/johnhika/dictate/internal/cli"
)

func main() {
	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if isUsageError(err) {
			target := cmd.CommandPath()
			if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-") {
				if found, _, findErr := cmd.Find(os.Args[1:]); findErr == nil && found != nil {
					target = found.CommandPath()
				}
			}
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", target)
		}
		os.Exit(1)
	}
}

// isUsageError matches cobra's argument and flag validation messages, the
// only errors worth following with a --help hint.
func isUsageError(err error) bool {
	message := strings.ToLower(err.Error())
	for _, pattern := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires at", "required flag"} {
		if strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}
