package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/OfficeDev/teams-toolkit-sub010/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Unresolved dependencies were already reported with the statuses
		if !errors.Is(err, cmd.ErrUnresolved) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
