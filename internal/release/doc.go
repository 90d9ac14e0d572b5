// Package release holds the issue model shared by the tracker client and the
// release-note writers.
//
// Issues fetched for a fixVersion are grouped by issue type with [GroupByType];
// groups come back sorted by type name and each group keeps the order in which
// its issues arrived.
package release
