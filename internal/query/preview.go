package query

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Preview returns the visible items narrowed by the pending search text,
// best matches first. While the debounce window is open this gives
// immediate feedback on the page already loaded; once the search settles
// the server result is returned as is.
func (c *Controller[T]) Preview() []T {
	s := c.store.State()
	items := s.Result.Items

	search := s.Filters.Search
	if c.searchText == nil || search == "" || search == s.Settled.Search {
		return items
	}

	targets := make([]string, len(items))
	for i, item := range items {
		targets[i] = c.searchText(item)
	}

	ranks := fuzzy.RankFindFold(search, targets)
	// lower distance is a closer match
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	out := make([]T, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, items[r.OriginalIndex])
	}
	return out
}
