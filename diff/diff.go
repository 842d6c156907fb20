// Package diff compares the derived artifacts of two processing versions.
//
// Both engines are pure functions over in-memory slices: they do no I/O and
// hold no shared state, so they are safe to call concurrently.
package diff

import "docledger/types"

type Status string

const (
	Added     Status = "Added"
	Removed   Status = "Removed"
	Unchanged Status = "Unchanged"
	Modified  Status = "Modified"
)

func (s Status) rank() int {
	switch s {
	case Added:
		return 0
	case Removed:
		return 1
	case Unchanged:
		return 2
	default:
		return 3
	}
}

// Entry is one line of a diff report. Item is the "to" side for entries
// present in both versions and the only side otherwise.
type Entry[T any] struct {
	Status           Status   `json:"status"`
	Item             T        `json:"item"`
	ModifiedFrom     *T       `json:"modified_from,omitempty"`
	SemanticDistance *float64 `json:"semantic_distance,omitempty"`
}

// Report is the full comparison of two versions of one document.
type Report struct {
	FromVersion     int                        `json:"from_version"`
	ToVersion       int                        `json:"to_version"`
	ActionItemsDiff []Entry[types.ActionItem] `json:"action_items_diff"`
	ChunksDiff      []Entry[types.Chunk]      `json:"chunks_diff"`
}

// Compare builds the report for two already-loaded versions.
func Compare(fromNumber, toNumber int, fromItems, toItems []types.ActionItem, fromChunks, toChunks []types.Chunk) Report {
	return Report{
		FromVersion:     fromNumber,
		ToVersion:       toNumber,
		ActionItemsDiff: CompareActionItems(fromItems, toItems),
		ChunksDiff:      CompareChunks(fromChunks, toChunks),
	}
}

// Count returns the number of entries with the given status.
func Count[T any](entries []Entry[T], status Status) int {
	n := 0
	for _, e := range entries {
		if e.Status == status {
			n++
		}
	}
	return n
}
