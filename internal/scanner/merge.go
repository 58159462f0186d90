package scanner

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Merge concatenates lists in argument order, keeps the first entry seen for
// each DisplayName and sorts the survivors by DisplayName. Entries with equal
// collation keys keep their concatenation order.
func Merge(lists ...[]*Entry) []*Entry {
	seen := make(map[string]bool)
	merged := []*Entry{}
	for _, list := range lists {
		for _, e := range list {
			if e == nil || seen[e.DisplayName] {
				continue
			}
			seen[e.DisplayName] = true
			merged = append(merged, e)
		}
	}

	c := collate.New(language.English)
	sort.SliceStable(merged, func(i, j int) bool {
		return c.CompareString(merged[i].DisplayName, merged[j].DisplayName) < 0
	})
	return merged
}
