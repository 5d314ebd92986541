package grouping

import (
	"github.com/google/virtugrid/core/heights"
)

// A grouping is a list of blocks, each block a list of groups.
// The next key in the hierarchy has one block per group of the parent key.
// Each leaf group holds the rows that share every key on its path.
//
// Terminology:
// * the level of a group is the index of the key that produced it
// * a flattened grouping is a header item per group followed by the rows of
//   the leaf groups, in first-seen order

type Group[R any] struct {
	Key         string
	Level       int
	Rows        []R
	ParentGroup *Group[R]
	Block       *Block[R]
	ChildBlock  *Block[R]
}

// Length returns the number of rows under the group.
func (g *Group[R]) Length() int {
	return len(g.Rows)
}

// Height returns the number of flattened items the group expands to: its
// header plus the items of its child groups, or its rows for a leaf.
func (g *Group[R]) Height() int {
	if g.ChildBlock == nil {
		return 1 + len(g.Rows)
	}
	height := 1
	for _, childGroup := range g.ChildBlock.Groups {
		height += childGroup.Height()
	}
	return height
}

// Path returns the keys from the top level down to this group.
func (g *Group[R]) Path() []string {
	if g.ParentGroup == nil {
		return []string{g.Key}
	}
	return append(g.ParentGroup.Path(), g.Key)
}

type Block[R any] struct {
	Groups      []*Group[R]
	ParentGroup *Group[R]
	Level       int
}

// Build groups rows by each key function in turn. With no keys it returns
// nil.
func Build[R any](rows []R, keys ...func(R) string) *Block[R] {
	if len(keys) == 0 {
		return nil
	}
	return buildBlock(rows, keys, 0, nil)
}

func buildBlock[R any](rows []R, keys []func(R) string, level int, parent *Group[R]) *Block[R] {
	b := &Block[R]{ParentGroup: parent, Level: level}
	byKey := make(map[string]*Group[R])
	for _, row := range rows {
		k := keys[0](row)
		g, ok := byKey[k]
		if !ok {
			g = &Group[R]{Key: k, Level: level, ParentGroup: parent, Block: b}
			byKey[k] = g
			b.Groups = append(b.Groups, g)
		}
		g.Rows = append(g.Rows, row)
	}
	if len(keys) > 1 {
		// every group spawns a block for the next key
		for _, g := range b.Groups {
			g.ChildBlock = buildBlock(g.Rows, keys[1:], level+1, g)
		}
	}
	return b
}

// Kind tells headers and data rows apart in a flattened grouping.
type Kind int

const (
	KindRow Kind = iota
	KindHeader
)

// Item is one entry of a flattened grouping.
type Item[R any] struct {
	Kind  Kind
	Level int
	Group *Group[R]
	Row   R
}

// IsHeader reports whether the item is a group header.
func (it Item[R]) IsHeader() bool {
	return it.Kind == KindHeader
}

// Flatten walks the grouping depth first and returns headers and rows in
// display order. Groups for which collapsed returns true contribute only
// their header. A nil collapsed expands everything.
func Flatten[R any](b *Block[R], collapsed func(*Group[R]) bool) []Item[R] {
	if b == nil {
		return nil
	}
	var items []Item[R]
	var walk func(*Block[R])
	walk = func(b *Block[R]) {
		for _, g := range b.Groups {
			items = append(items, Item[R]{Kind: KindHeader, Level: g.Level, Group: g})
			if collapsed != nil && collapsed(g) {
				continue
			}
			if g.ChildBlock != nil {
				walk(g.ChildBlock)
				continue
			}
			for _, row := range g.Rows {
				items = append(items, Item[R]{Kind: KindRow, Level: g.Level + 1, Group: g, Row: row})
			}
		}
	}
	walk(b)
	return items
}

// Rows wraps a flattened grouping, or plain rows when nothing is grouped, as
// a row source for the height cache.
func Rows[R any](rows []R, b *Block[R], collapsed func(*Group[R]) bool) heights.Rows[Item[R]] {
	if b == nil {
		items := make([]Item[R], len(rows))
		for i, row := range rows {
			items[i] = Item[R]{Kind: KindRow, Row: row}
		}
		return items
	}
	return Flatten(b, collapsed)
}

// Source lifts a plain row source to ungrouped items. Unloaded rows stay
// unloaded.
func Source[R any](src heights.RowSource[R]) heights.RowSource[Item[R]] {
	return itemSource[R]{src: src}
}

type itemSource[R any] struct {
	src heights.RowSource[R]
}

func (s itemSource[R]) Len() int {
	if s.src == nil {
		return 0
	}
	return s.src.Len()
}

func (s itemSource[R]) Row(i int) (Item[R], bool) {
	if s.src == nil {
		return Item[R]{}, false
	}
	row, ok := s.src.Row(i)
	if !ok {
		return Item[R]{}, false
	}
	return Item[R]{Kind: KindRow, Row: row}, true
}

// ItemHeights returns a resolver that gives headers and rows their own
// heights. The header resolver's scalar value, if any, is ignored; unloaded
// items use the row resolver's.
func ItemHeights[R any](header, row heights.HeightResolver[R]) heights.HeightResolver[Item[R]] {
	return itemHeights[R]{header: header, row: row}
}

type itemHeights[R any] struct {
	header heights.HeightResolver[R]
	row    heights.HeightResolver[R]
}

func (h itemHeights[R]) HeightOf(it Item[R]) float64 {
	if it.IsHeader() {
		if h.header == nil {
			return h.Scalar()
		}
		var zero R
		if it.Group != nil && len(it.Group.Rows) > 0 {
			return h.header.HeightOf(it.Group.Rows[0])
		}
		return h.header.HeightOf(zero)
	}
	return h.row.HeightOf(it.Row)
}

func (h itemHeights[R]) Scalar() float64 {
	if s, ok := h.row.(heights.Scalar); ok {
		return s.Scalar()
	}
	return heights.DefaultRowHeight
}

// ItemDetailHeights lifts a row detail resolver to flattened items. Headers
// never have a detail panel.
func ItemDetailHeights[R any](detail heights.DetailHeightResolver[R]) heights.DetailHeightResolver[Item[R]] {
	return heights.DetailHeightFunc[Item[R]](func(it Item[R], index int) float64 {
		if it.IsHeader() {
			return 0
		}
		return detail.DetailHeightOf(it.Row, index)
	})
}

// ItemExpander lifts a row expander to flattened items.
type ItemExpander[R any] struct {
	Rows heights.Expander[R]
}

func (e ItemExpander[R]) Expanded(it Item[R]) bool {
	return !it.IsHeader() && e.Rows != nil && e.Rows.Expanded(it.Row)
}

// Set forwards to the row expander when it can be changed. Headers are
// ignored.
func (e ItemExpander[R]) Set(it Item[R], expanded bool) {
	if it.IsHeader() {
		return
	}
	if t, ok := e.Rows.(interface{ Set(R, bool) }); ok {
		t.Set(it.Row, expanded)
	}
}
