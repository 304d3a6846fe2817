package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dhamidi/ibex/cst"
	"github.com/dhamidi/ibex/format"
	"github.com/dhamidi/ibex/packrat"
	"github.com/dhamidi/ibex/peg"
)

func newParseCmd() *cobra.Command {
	var grammar grammarFlags
	var outputFormat string
	var partial bool
	var stats bool

	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse a file with a grammar and dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			c, err := grammar.compile()
			if err != nil {
				return err
			}

			var data []byte
			if filename == "-" {
				data, err = io.ReadAll(os.Stdin)
				filename = "<stdin>"
			} else {
				data, err = os.ReadFile(filename)
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			encoder, err := format.New(outputFormat, os.Stdout, data)
			if err != nil {
				return err
			}

			var opts []peg.Option
			if partial {
				opts = append(opts, peg.WithPartial())
			}
			counter := packrat.NewCounter()
			if stats {
				opts = append(opts, peg.WithObserver(counter))
			}

			node, err := c.Parse(data, grammar.start, opts...)
			if stats {
				printStats(cmd.ErrOrStderr(), counter)
			}
			if err != nil {
				var pe *packrat.ParseError
				if errors.As(err, &pe) {
					return fmt.Errorf("%s: %s", cst.Locate(data, filename, pe.Pos), pe.Message)
				}
				return err
			}

			if err := encoder.Encode(node); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	grammar.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "sexpr", "output format (json, tree, lines, sexpr)")
	cmd.Flags().BoolVar(&partial, "partial", false, "accept a match that does not reach the end of the input")
	cmd.Flags().BoolVar(&stats, "stats", false, "print rule evaluation statistics to stderr")

	return cmd
}

func printStats(w io.Writer, c *packrat.Counter) {
	names := maps.Keys(c.Evaluations)
	slices.Sort(names)
	fmt.Fprintf(w, "%-24s %8s %8s %8s %s\n", "rule", "evals", "hits", "lr", "seeds")
	for _, name := range names {
		fmt.Fprintf(w, "%-24s %8d %8d %8d %v\n", name, c.Evaluations[name], c.Hits[name], c.Recursions[name], c.Seeds[name])
	}
}
