package feed

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Filterer decides which newsroom entries become sources. Excludes win
// over includes; every include rule must be satisfied.
type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks filtered entries and returns the ones to import.
func (f *Filterer) Run(items []Item, feedConfig *Config) (kept []Item, skipped []Item) {
	for _, item := range items {
		if reason := f.reject(item, feedConfig.Filters); reason != "" {
			item.IsFiltered = true
			item.FilterReason = reason
			skipped = append(skipped, item)
			continue
		}
		kept = append(kept, item)
	}
	return kept, skipped
}

func (f *Filterer) reject(item Item, filters []ConfigFilter) string {
	for _, filter := range filters {
		value := fold(fieldValue(item, filter.Field))

		for _, exclude := range filter.Excludes {
			if strings.Contains(value, fold(exclude)) {
				return fmt.Sprintf("excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) == 0 {
			continue
		}
		matched := false
		for _, include := range filter.Includes {
			if strings.Contains(value, fold(include)) {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Sprintf("excluded by %s filter: none of %v", filter.Field, filter.Includes)
		}
	}

	return ""
}

// fold compares Hangul in composed form and Latin case-insensitively.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

func fieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "description":
		return item.Description
	case "content":
		return item.Content
	case "link":
		return item.Link
	case "categories":
		return strings.Join(item.Categories, " ")
	default:
		return ""
	}
}
