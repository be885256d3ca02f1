package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chatd/internal/client"
	"chatd/pkg/types"
)

func newChatCmd() *cobra.Command {
	var (
		url       string
		timeout   time.Duration
		maxTokens int
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat against a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(url, timeout)
			return runREPL(cmd.Context(), c, cmd.InOrStdin(), cmd.OutOrStdout(), maxTokens)
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8000", "Server base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Per-message timeout")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max_tokens for each message (server default when 0)")
	return cmd
}

// chatter is the part of the API client the REPL uses.
type chatter interface {
	Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
}

// runREPL reads one message per line until EOF or exit/quit.
func runREPL(ctx context.Context, c chatter, in io.Reader, out io.Writer, maxTokens int) error {
	fmt.Fprintln(out, "Chat session started. Type 'exit' or 'quit' to end.")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			fmt.Fprintln(out, "Please enter a message.")
			continue
		}
		req := types.ChatRequest{Message: line}
		if maxTokens > 0 {
			mt := maxTokens
			req.MaxTokens = &mt
		}
		start := time.Now()
		resp, err := c.Chat(ctx, req)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		fmt.Fprintf(out, "Assistant: %s\n", resp.Response)
		fmt.Fprintf(out, "(%.2fs, %d tokens, %.1f tokens/s)\n", time.Since(start).Seconds(), resp.TokensUsed, resp.TokensPerSec)
	}
}
