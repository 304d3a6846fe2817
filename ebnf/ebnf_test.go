package ebnf

import (
	"strings"
	"testing"
)

const arithmetic = `
Expr   = Expr "+" Term | Term .
Term   = Term "*" Factor | Factor .
Factor = "(" Expr ")" | number .
number = digit { digit } .
digit  = "0" … "9" .
_ws    = { " " | "\t" | "\n" } .
`

func TestTranslate_LeftRecursiveGrammar(t *testing.T) {
	g, err := Parse("arith.ebnf", strings.NewReader(arithmetic))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pg, err := Translate(g, WithSkip("_ws"))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if got := strings.Join(pg.Rules(), " "); got != "Expr Term Factor number digit _ws" {
		t.Errorf("got rules %q, want source order", got)
	}
	if !pg.IsLexical("number") || pg.IsLexical("Expr") {
		t.Error("lexical rules not recognised by their lower-case names")
	}
	if got := strings.Join(pg.LeftRecursive(), " "); got != "Expr Term" {
		t.Errorf("got left-recursive %q, want Expr Term", got)
	}

	c, err := pg.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"12", `(Expr (Term (Factor (number "12"))))`},
		{"1+2*3", `(Expr (Expr (Term (Factor (number "1")))) "+" (Term (Term (Factor (number "2"))) "*" (Factor (number "3"))))`},
		{" 1 + 2 ", `(Expr (Expr (Term (Factor (number "1")))) "+" (Term (Factor (number "2"))))`},
	}
	for _, tt := range tests {
		node, err := c.Parse([]byte(tt.input), "Expr")
		if err != nil {
			t.Errorf("%q: %v", tt.input, err)
			continue
		}
		if got := node.String(); got != tt.want {
			t.Errorf("%q:\ngot  %s\nwant %s", tt.input, got, tt.want)
		}
	}

	if _, err := c.Parse([]byte("1+"), "Expr"); err == nil {
		t.Error("incomplete expression accepted")
	}
}

func TestTranslate_EmptyProduction(t *testing.T) {
	g, err := Parse("empty.ebnf", strings.NewReader(`S = "a" Empty "b" . Empty = .`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pg, err := Translate(g)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	c, err := pg.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := c.Parse([]byte("ab"), "S"); err != nil {
		t.Errorf("parse: %v", err)
	}
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		grammar string
		opts    []Option
		want    string
	}{
		{"multi-byte range", `letter = "α" … "ω" .`, nil, "single bytes"},
		{"missing skip", `S = "a" .`, []Option{WithSkip("ws")}, "skip production ws"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse("bad.ebnf", strings.NewReader(tt.grammar))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = Translate(g, tt.opts...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	g, err := Parse("verify.ebnf", strings.NewReader(`S = A . A = "a" . Unused = "u" .`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = Verify(g, "S")
	if err == nil {
		t.Fatal("unused production not reported")
	}
	if errs := Errors(err); len(errs) != 1 || !strings.Contains(errs[0].Error(), "Unused") {
		t.Errorf("got %v, want one error about Unused", errs)
	}

	if _, err := Parse("broken.ebnf", strings.NewReader(`S = "a"`)); err == nil {
		t.Error("missing period accepted")
	}
}

func TestErrors_UnwrapsParseErrors(t *testing.T) {
	_, err := Parse("two.ebnf", strings.NewReader(`A = "a" B = .`))
	if err == nil {
		t.Fatal("malformed grammar accepted")
	}
	if errs := Errors(err); len(errs) == 0 {
		t.Error("no errors extracted")
	}
	if errs := Errors(nil); errs != nil {
		t.Errorf("got %v for nil", errs)
	}
}
