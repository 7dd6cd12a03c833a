package drag

import (
	"github.com/evielund/sitboard/internal/domain"
	"github.com/evielund/sitboard/internal/hittest"
)

// Position converts a resolved drop target into the insertion index the
// board and the remote move command share: "insert before the item
// currently holding this index". The second return is false when the drop
// would leave the board unchanged, so callers can skip the write entirely.
func Position(b domain.Board, itemID string, target hittest.Target) (int, bool) {
	sourceKey, sourceIdx, ok := b.IndexOf(itemID)
	if !ok {
		return 0, false
	}

	destKey := target.ColumnKey
	var raw int
	if target.IsItem() {
		idx := indexOfItem(b.ItemsIn(destKey), target.ItemID)
		if idx < 0 {
			// Stale target from a frame the board has since left behind.
			return 0, false
		}
		raw = idx
	} else {
		raw = len(b.ItemsIn(destKey))
	}

	if destKey != sourceKey {
		return raw, true
	}

	// Same column: the card leaves its slot before reinserting, so compare
	// against the post-removal index to catch drops that change nothing.
	insertAt := min(raw, len(b.ItemsIn(destKey))-1)
	return raw, insertAt != sourceIdx
}

func indexOfItem(items []domain.Item, id string) int {
	for idx, item := range items {
		if item.ID == id {
			return idx
		}
	}
	return -1
}
