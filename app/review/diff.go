package review

import "golang.org/x/text/unicode/norm"

const (
	EditMinor    = "minor"
	EditModerate = "moderate"
	EditRewrite  = "rewrite"
)

// EditStats summarises how far a user edit moved from the generated text.
type EditStats struct {
	Changes int     `json:"changes"` // positional rune mismatches plus length delta
	Ratio   float64 `json:"ratio"`   // Changes over the longer text
	Type    string  `json:"type"`
}

// Diff compares two texts rune by rune after NFC normalisation.
func Diff(before, after string) EditStats {
	a := []rune(norm.NFC.String(before))
	b := []rune(norm.NFC.String(after))

	longest := max(len(a), len(b))
	if longest == 0 {
		return EditStats{Type: EditMinor}
	}

	changes := distance(a, b)
	ratio := float64(changes) / float64(longest)
	return EditStats{Changes: changes, Ratio: ratio, Type: ClassifyEdit(ratio)}
}

func ClassifyEdit(ratio float64) string {
	switch {
	case ratio < 0.1:
		return EditMinor
	case ratio < 0.4:
		return EditModerate
	default:
		return EditRewrite
	}
}

// distance counts positional mismatches over the shared prefix length plus
// the length difference. Insertions shift every later rune, so this is a
// coarse signal rather than an alignment.
func distance(a, b []rune) int {
	n := min(len(a), len(b))
	changes := max(len(a), len(b)) - n
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			changes++
		}
	}
	return changes
}
