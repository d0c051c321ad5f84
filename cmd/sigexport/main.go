package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gookit/color"
	"github.com/matheus3301/sigexport/internal/sample"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.AddCommand(newSampleCmd(), newConfigCmd())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Render("error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample DIR",
		Short: "Write a small plaintext Signal data directory to try the exporter on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sample.Write(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("write sample: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample source written to %s\n", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Try: sigexport --plaintext --source %s OUTPUT\n", args[0])
			return nil
		},
	}
}
