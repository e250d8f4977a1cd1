package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jxucoder/shoplite/internal/repl"
)

// exitCodeError ends the process with a status code. The command has already
// reported the problem, so main prints nothing more.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func askCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Send a single prompt and print the answer",
		Long: `Send one prompt to the chat service and print the answer the same way the
interactive chat does. Arguments are joined with spaces.

Exits with status 1 when the request fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd, opts)
			if err != nil {
				return err
			}

			res := client.Send(cmd.Context(), strings.Join(args, " "))
			repl.WriteResult(cmd.OutOrStdout(), res)

			if _, serviceErr := res.ServiceError(); res.Failed() || serviceErr {
				return exitCodeError(1)
			}
			return nil
		},
	}
}
