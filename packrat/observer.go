package packrat

// Observer receives engine events. Implementations must not call back into
// the scanner.
type Observer interface {
	// RuleEvaluated is called each time a rule body is run at pos.
	RuleEvaluated(rule *Rule, pos int)
	// MemoHit is called when an application is answered from the memo table.
	MemoHit(rule *Rule, pos int)
	// LeftRecursion is called when rule re-enters itself at pos.
	LeftRecursion(rule *Rule, pos int)
	// SeedGrown is called when a left-recursive rule at pos adopts a seed
	// ending at end. The first seed is reported too.
	SeedGrown(rule *Rule, pos, end int)
}

type nopObserver struct{}

func (nopObserver) RuleEvaluated(*Rule, int)  {}
func (nopObserver) MemoHit(*Rule, int)        {}
func (nopObserver) LeftRecursion(*Rule, int)  {}
func (nopObserver) SeedGrown(*Rule, int, int) {}

// Counter is an Observer that tallies events per rule name.
type Counter struct {
	Evaluations map[string]int
	Hits        map[string]int
	Recursions  map[string]int
	Seeds       map[string][]int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{
		Evaluations: make(map[string]int),
		Hits:        make(map[string]int),
		Recursions:  make(map[string]int),
		Seeds:       make(map[string][]int),
	}
}

func (c *Counter) RuleEvaluated(rule *Rule, pos int) {
	c.Evaluations[rule.Name]++
}

func (c *Counter) MemoHit(rule *Rule, pos int) {
	c.Hits[rule.Name]++
}

func (c *Counter) LeftRecursion(rule *Rule, pos int) {
	c.Recursions[rule.Name]++
}

func (c *Counter) SeedGrown(rule *Rule, pos, end int) {
	c.Seeds[rule.Name] = append(c.Seeds[rule.Name], end)
}
