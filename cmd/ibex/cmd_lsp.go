package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/ibex/lsp"
)

func newLSPCmd() *cobra.Command {
	var grammar grammarFlags

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start a Language Server Protocol server reporting parse errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if grammar.start == "" {
				grammar.start = os.Getenv("IBEX_START")
			}
			c, err := grammar.compile()
			if err != nil {
				return err
			}
			server := lsp.NewServer(c, grammar.start, version)
			return server.RunStdio()
		},
	}

	grammar.register(cmd)

	return cmd
}
