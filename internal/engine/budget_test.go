package engine

import "testing"

func TestParseBudget(t *testing.T) {
	const (
		def = 1.00
		min = 0.01
		max = 25.00
	)

	tests := []struct {
		in         string
		wantBudget float64
		wantRest   string
	}{
		{"$0.50 summarize chapter 3", 0.50, "summarize chapter 3"},
		{"$5 go through all chapters", 5.00, "go through all chapters"},
		{"$15 run the experiments", 15.00, "run the experiments"},
		{"summarize chapter 3", 1.00, "summarize chapter 3"},
		{"$100 expensive request", 25.00, "expensive request"},
		{"$0.001 tiny request", 0.01, "tiny request"},
		{"$ sign without a number", 1.00, "$ sign without a number"},
		{"costs $5 mid-sentence", 1.00, "costs $5 mid-sentence"},
		{"  $2 leading whitespace", 2.00, "leading whitespace"},
		{"$3.50", 3.50, ""},
	}

	for _, tt := range tests {
		budget, rest := ParseBudget(tt.in, def, min, max)
		if budget != tt.wantBudget || rest != tt.wantRest {
			t.Errorf("ParseBudget(%q) = (%.3f, %q), want (%.3f, %q)",
				tt.in, budget, rest, tt.wantBudget, tt.wantRest)
		}
	}
}
