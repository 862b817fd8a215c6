// Package natord provides locale-aware, numeric-aware string ordering,
// so "page2" sorts before "page10".
package natord

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparer performs natural-order comparison. The underlying collator is
// stateful; a Comparer is not safe for concurrent use. Create one per
// sorting operation.
type Comparer struct {
	c *collate.Collator
}

// New returns a Comparer using numeric, case-insensitive collation under
// the neutral locale.
func New() *Comparer {
	return &Comparer{c: collate.New(language.Und, collate.Numeric, collate.IgnoreCase)}
}

// Compare returns -1, 0, or +1 following the usual comparison contract.
func (cmp *Comparer) Compare(a, b string) int {
	return cmp.c.CompareString(a, b)
}

// Less reports whether a orders before b.
func (cmp *Comparer) Less(a, b string) bool {
	return cmp.Compare(a, b) < 0
}

// SortStrings sorts ss in natural order. The sort is stable: equal keys
// keep their original relative order.
func (cmp *Comparer) SortStrings(ss []string) {
	sort.SliceStable(ss, func(i, j int) bool { return cmp.Less(ss[i], ss[j]) })
}

// SortStableFunc stably sorts items by the natural order of their keys.
func SortStableFunc[T any](cmp *Comparer, items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return cmp.Less(key(items[i]), key(items[j]))
	})
}
