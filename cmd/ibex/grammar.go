package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/ibex/ebnf"
	"github.com/dhamidi/ibex/peg"
)

// grammarFlags are shared by the commands that parse documents.
type grammarFlags struct {
	file  string
	start string
	skip  string
}

func (f *grammarFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "grammar", "g", "", "EBNF grammar file")
	cmd.Flags().StringVarP(&f.start, "start", "s", "", "start production")
	cmd.Flags().StringVar(&f.skip, "skip", "", "production skipped between tokens, e.g. whitespace")
	cmd.MarkFlagRequired("grammar")
}

func (f *grammarFlags) compile() (*peg.Compiled, error) {
	if f.start == "" {
		return nil, fmt.Errorf("no start production given")
	}
	var opts []ebnf.Option
	if f.skip != "" {
		opts = append(opts, ebnf.WithSkip(f.skip))
	}
	c, err := ebnf.Compile(f.file, opts...)
	if err != nil {
		return nil, err
	}
	if !c.Grammar().Has(f.start) {
		return nil, fmt.Errorf("%s: no production %s", f.file, f.start)
	}
	return c, nil
}
