package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/ibex/ebnf"
)

func newCheckCmd() *cobra.Command {
	var startProduction string
	var skip string

	cmd := &cobra.Command{
		Use:           "check <file>",
		Short:         "Parse and verify an EBNF grammar file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			out := cmd.OutOrStdout()

			g, err := ebnf.Load(filename)
			if err != nil {
				printErrors(cmd, err)
				return err
			}

			if startProduction != "" {
				if err := ebnf.Verify(g, startProduction); err != nil {
					printErrors(cmd, err)
					return err
				}
			}

			var opts []ebnf.Option
			if skip != "" {
				opts = append(opts, ebnf.WithSkip(skip))
			}
			pg, err := ebnf.Translate(g, opts...)
			if err != nil {
				printErrors(cmd, err)
				return err
			}
			if _, err := pg.Compile(); err != nil {
				printErrors(cmd, err)
				return err
			}

			fmt.Fprintf(out, "%s: %d productions\n", filename, len(pg.Rules()))
			if lr := pg.LeftRecursive(); len(lr) > 0 {
				fmt.Fprintf(out, "left-recursive: %s\n", strings.Join(lr, ", "))
			}
			if nullable := pg.Nullable(); len(nullable) > 0 {
				fmt.Fprintf(out, "nullable: %s\n", strings.Join(nullable, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&startProduction, "start", "s", "", "start production for verification (if empty, only checks syntax)")
	cmd.Flags().StringVar(&skip, "skip", "", "production skipped between tokens")

	return cmd
}

func printErrors(cmd *cobra.Command, err error) {
	for _, e := range ebnf.Errors(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
}
