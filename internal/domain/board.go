package domain

import (
	"slices"
	"sort"
)

// Board is an immutable snapshot of every column and item. Mutating
// operations return a new snapshot; callers that race on refreshes simply
// overwrite each other with complete states.
type Board struct {
	columns []Column
	items   map[string][]Item
}

// ReplaceAll builds a canonical snapshot from remote state. Columns are
// ordered by their display position, items by position with input order
// breaking ties, so transiently duplicated positions still read as a total
// order.
func ReplaceAll(items []Item, columns []Column) Board {
	cols := append([]Column(nil), columns...)
	sort.SliceStable(cols, func(a, b int) bool { return cols[a].Position < cols[b].Position })

	byColumn := make(map[string][]Item, len(cols))
	for _, item := range items {
		byColumn[item.ColumnKey] = append(byColumn[item.ColumnKey], item)
	}
	for key := range byColumn {
		colItems := byColumn[key]
		sort.SliceStable(colItems, func(a, b int) bool { return colItems[a].Position < colItems[b].Position })
		byColumn[key] = colItems
	}

	return Board{columns: cols, items: byColumn}
}

// Columns returns the columns in display order.
func (b Board) Columns() []Column {
	return append([]Column(nil), b.columns...)
}

// Column returns the column with the given key.
func (b Board) Column(key string) (Column, bool) {
	for _, col := range b.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// ItemsIn returns the ordered items of one column.
func (b Board) ItemsIn(columnKey string) []Item {
	return append([]Item(nil), b.items[columnKey]...)
}

// Item looks an item up by id across all columns.
func (b Board) Item(id string) (Item, bool) {
	for _, colItems := range b.items {
		for _, item := range colItems {
			if item.ID == id {
				return item, true
			}
		}
	}
	return Item{}, false
}

// IndexOf returns an item's current index within its column.
func (b Board) IndexOf(id string) (columnKey string, index int, ok bool) {
	for key, colItems := range b.items {
		for idx, item := range colItems {
			if item.ID == id {
				return key, idx, true
			}
		}
	}
	return "", 0, false
}

// Order returns the item ids of one column in visible order.
func (b Board) Order(columnKey string) []string {
	colItems := b.items[columnKey]
	out := make([]string, len(colItems))
	for idx, item := range colItems {
		out[idx] = item.ID
	}
	return out
}

// ApplyMove returns a snapshot with the item moved into columnKey before
// the given index. The index is clamped to the destination length after the
// item leaves its source slot; only the source and destination columns are
// renumbered. An unknown item id returns the receiver unchanged.
func (b Board) ApplyMove(itemID, columnKey string, position int) Board {
	sourceKey, sourceIdx, ok := b.IndexOf(itemID)
	if !ok || position < 0 {
		return b
	}

	next := b.clone()
	moved := next.items[sourceKey][sourceIdx]
	next.items[sourceKey] = slices.Delete(next.items[sourceKey], sourceIdx, sourceIdx+1)

	moved.ColumnKey = columnKey
	dest := next.items[columnKey]
	insertAt := min(position, len(dest))
	next.items[columnKey] = slices.Insert(dest, insertAt, moved)

	next.renumber(sourceKey)
	if columnKey != sourceKey {
		next.renumber(columnKey)
	}
	return next
}

// clone copies the snapshot so slice mutations never leak into the receiver.
func (b Board) clone() Board {
	items := make(map[string][]Item, len(b.items))
	for key, colItems := range b.items {
		items[key] = append([]Item(nil), colItems...)
	}
	return Board{
		columns: append([]Column(nil), b.columns...),
		items:   items,
	}
}

// renumber reassigns sequential positions within one column.
func (b Board) renumber(columnKey string) {
	for idx := range b.items[columnKey] {
		b.items[columnKey][idx].Position = idx
	}
}
