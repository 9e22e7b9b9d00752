package main

import (
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/cloneval/internal/config"
)

// GetExplicitFlags returns the flags the user set on cmd, keyed by flag name
func GetExplicitFlags(cmd *cobra.Command) map[string]bool {
	if cmd == nil {
		return map[string]bool{}
	}
	return config.NewFlagTrackerFromFlagSet(cmd.Flags()).GetAll()
}
