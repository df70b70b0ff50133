// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the nodereaper CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodereaper",
		Short: "Garbage collect unhealthy, unschedulable and idle cluster nodes",
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Version())

	return cmd
}
