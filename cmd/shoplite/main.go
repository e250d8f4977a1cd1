// Shoplite Chat
//
// An interactive command-line client for the Shoplite support assistant.
// Type a question, get an answer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jxucoder/shoplite/internal/chat"
	"github.com/jxucoder/shoplite/internal/config"
	"github.com/jxucoder/shoplite/internal/repl"
)

var version = "dev"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	server  string
	timeout time.Duration
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chat.Version = version
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		var code exitCodeError
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "shoplite",
		Short: "Shoplite Chat - talk to the Shoplite support assistant",
		Long: `Shoplite Chat sends what you type to the Shoplite chat service and prints
the assistant's answer. Type 'exit' or 'quit' to end the session.

  shoplite                                  Start an interactive chat
  shoplite ask "where is my order?"         Ask a single question
  shoplite health                           Check the chat service is reachable
  shoplite config set SHOPLITE_BASE_URL URL Point the client at another server`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd, opts)
			if err != nil {
				return err
			}
			r := &repl.REPL{
				Client:      client,
				In:          cmd.InOrStdin(),
				Out:         cmd.OutOrStdout(),
				Interactive: isTerminal(cmd.InOrStdin()),
			}
			return r.Run(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", "", "chat service base URL (overrides "+config.KeyBaseURL+")")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout, 0 for none (overrides "+config.KeyTimeout+")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(
		askCmd(opts),
		healthCmd(opts),
		configCmd(),
	)
	return rootCmd
}

// newClient resolves configuration, applies flag overrides and builds the
// chat client.
func newClient(cmd *cobra.Command, opts *globalOptions) (*chat.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.server != "" {
		cfg.BaseURL = opts.server
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
		logger.Printf("[shoplite] using %s (timeout %s)", cfg.BaseURL, describeTimeout(cfg.Timeout))
	}

	return chat.New(cfg.BaseURL,
		chat.WithTimeout(cfg.Timeout),
		chat.WithLogger(logger),
	), nil
}

func describeTimeout(d time.Duration) string {
	if d == 0 {
		return "none"
	}
	return d.String()
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
