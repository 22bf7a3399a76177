package review

import "sort"

const (
	SeverityCritical = "critical"
	SeverityRed      = "red"
	SeverityYellow   = "yellow"
)

const (
	CategoryFactOmission  = "fact_omission"
	CategoryFactError     = "fact_error"
	CategoryForbiddenTerm = "forbidden_term"
	CategoryFabrication   = "fabrication"
	CategoryLength        = "length"
	CategoryFormat        = "format"
	CategoryTone          = "tone"
	CategoryReviewFailed  = "review_failed"
	CategoryGeneral       = "general"
)

// Issue is one problem found in generated content. Issues are transient
// and independent of each other.
type Issue struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Quote    string `json:"quote,omitempty"`
	Section  string `json:"section,omitempty"`
}

var severityRank = map[string]int{
	SeverityCritical: 0,
	SeverityRed:      1,
	SeverityYellow:   2,
}

// SortIssues orders issues critical > red > yellow, keeping input order
// within a severity.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return rank(issues[i].Severity) < rank(issues[j].Severity)
	})
}

func rank(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return len(severityRank)
}

// HasBlocking reports whether any issue is critical or red.
func HasBlocking(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityCritical || i.Severity == SeverityRed {
			return true
		}
	}
	return false
}
