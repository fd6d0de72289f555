package tools

import (
	"strings"

	"golang.org/x/text/cases"
)

// SearchNames returns, for each query in order, every name that contains the
// query ignoring case. Results are concatenated and duplicates are kept.
func SearchNames(names []string, queries []string) []string {
	folder := cases.Fold()
	folded := make([]string, len(names))
	for i, name := range names {
		folded[i] = folder.String(name)
	}

	out := make([]string, 0)
	for _, query := range queries {
		needle := folder.String(query)
		for i, name := range folded {
			if strings.Contains(name, needle) {
				out = append(out, names[i])
			}
		}
	}
	return out
}
