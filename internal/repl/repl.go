// Package repl runs the interactive chat loop.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jxucoder/shoplite/internal/chat"
)

const (
	// Banner is printed once when the loop starts.
	Banner = "Welcome to Shoplite Chat! Type 'exit' or 'quit' to end."
	// Prompt precedes each input line on an interactive terminal.
	Prompt = "You: "
)

// Separator follows every exchange.
var Separator = strings.Repeat("-", 50)

// REPL provides an interactive chat loop.
type REPL struct {
	Client chat.Sender
	In     io.Reader
	Out    io.Writer

	// Interactive enables the "You: " prompt. Leave it off when stdin is piped.
	Interactive bool
}

// Run reads lines until an exit command, EOF, or ctx is done. Transport
// failures are printed and never end the loop; only input errors are returned.
func (r *REPL) Run(ctx context.Context) error {
	if r.Client == nil {
		return errors.New("repl: no chat client")
	}
	if r.In == nil {
		r.In = os.Stdin
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}

	fmt.Fprintln(r.Out, Banner)
	reader := bufio.NewReader(r.In)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.Interactive {
			fmt.Fprint(r.Out, Prompt)
		}

		line, err := readLine(ctx, reader)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading input: %w", err)
		}
		eof := err != nil
		if eof && line == "" {
			if r.Interactive {
				fmt.Fprintln(r.Out)
			}
			return nil
		}

		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if IsExit(line) {
			return nil
		}

		WriteResult(r.Out, r.Client.Send(ctx, line))
		fmt.Fprintln(r.Out, Separator)

		if eof {
			return nil
		}
	}
}

// readLine returns the next line, or early once ctx is done. A read left
// blocked by cancellation is abandoned with the reader.
func readLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

// IsExit reports whether line is an exit command. Matching is
// case-insensitive and exact: surrounding whitespace is not ignored.
func IsExit(line string) bool {
	return strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit")
}

// WriteResult prints one exchange's outcome as "Bot: ..." or "Error: ...".
func WriteResult(w io.Writer, res chat.Result) {
	if res.Failed() {
		fmt.Fprintln(w, "Error:", res.Message())
		return
	}
	if msg, ok := res.ServiceError(); ok {
		fmt.Fprintln(w, "Error:", msg)
		return
	}
	answer, ok := res.Response()
	if !ok {
		answer = chat.Placeholder
	}
	fmt.Fprintln(w, "Bot:", answer)
}
