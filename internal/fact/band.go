package fact

// Band is a coarse difficulty grouping used for reporting.
type Band string

const (
	BandBasic        Band = "basic"
	BandIntermediate Band = "intermediate"
	BandAdvanced     Band = "advanced"
)

// Band classifies the fact. Facts with a 1, 2 or 10 factor, or with both
// factors at most 5, are basic; anything else up to 9×9 is intermediate;
// the rest (an 11 or 12 factor) is advanced.
func (f Fact) Band() Band {
	if isEasyFactor(f.Multiplicand) || isEasyFactor(f.Multiplier) || f.MaxFactor() <= 5 {
		return BandBasic
	}
	if f.MaxFactor() <= 9 {
		return BandIntermediate
	}
	return BandAdvanced
}

func isEasyFactor(n int) bool {
	return n == 1 || n == 2 || n == 10
}
