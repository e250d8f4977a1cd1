package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the chat service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd, opts)
			if err != nil {
				return err
			}
			if err := client.Health(cmd.Context()); err != nil {
				return fmt.Errorf("%s is unhealthy: %w", client.BaseURL(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", client.BaseURL())
			return nil
		},
	}
}
