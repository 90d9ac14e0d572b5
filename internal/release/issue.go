package release

import (
	"slices"

	"github.com/samber/lo"
)

// Issue is a tracked unit of work fixed in a release.
type Issue struct {
	Key     string `json:"key"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

// Group is every issue of a single type.
type Group struct {
	Type   string  `json:"type"`
	Issues []Issue `json:"issues"`
}

// Notes is the input to the release-note writers.
type Notes struct {
	Project string  `json:"project"`
	Version string  `json:"version"`
	BaseURL string  `json:"baseURL"`
	Groups  []Group `json:"groups"`
}

// GroupByType buckets issues by Type. Groups are ordered by type name and
// issues keep their input order within a group.
func GroupByType(issues []Issue) []Group {
	byType := lo.GroupBy(issues, func(i Issue) string { return i.Type })
	types := lo.Keys(byType)
	slices.Sort(types)

	groups := make([]Group, 0, len(types))
	for _, t := range types {
		groups = append(groups, Group{Type: t, Issues: byType[t]})
	}
	return groups
}

// Count returns the total number of issues across all groups.
func (n *Notes) Count() int {
	return lo.SumBy(n.Groups, func(g Group) int { return len(g.Issues) })
}
