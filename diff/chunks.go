package diff

import (
	"math"
	"slices"

	"docledger/types"
)

// CompareChunks aligns two ordered chunk lists by position and reports one
// entry per position in ascending order.
//
// Alignment is by raw position, not content: inserting or deleting one chunk
// shifts every later position, so a single edit shows up as a run of
// Modified entries followed by an Added or Removed tail.
func CompareChunks(from, to []types.Chunk) []Entry[types.Chunk] {
	fromByPos := indexChunks(from)
	toByPos := indexChunks(to)

	positions := make([]int, 0, len(fromByPos)+len(toByPos))
	for pos := range fromByPos {
		positions = append(positions, pos)
	}
	for pos := range toByPos {
		if _, ok := fromByPos[pos]; !ok {
			positions = append(positions, pos)
		}
	}
	slices.Sort(positions)

	entries := make([]Entry[types.Chunk], 0, len(positions))
	for _, pos := range positions {
		f, inFrom := fromByPos[pos]
		t, inTo := toByPos[pos]

		switch {
		case inFrom && inTo:
			entries = append(entries, compareAligned(f, t))
		case inFrom:
			entries = append(entries, Entry[types.Chunk]{Status: Removed, Item: f})
		default:
			entries = append(entries, Entry[types.Chunk]{Status: Added, Item: t})
		}
	}
	return entries
}

func compareAligned(from, to types.Chunk) Entry[types.Chunk] {
	if sameText(from.TextContent, to.TextContent) {
		zero := 0.0
		return Entry[types.Chunk]{Status: Unchanged, Item: to, SemanticDistance: &zero}
	}

	entry := Entry[types.Chunk]{Status: Modified, Item: to, ModifiedFrom: &from}
	// A missing embedding means the worker has not scored that side yet.
	if d, ok := CosineDistance(from.Embedding, to.Embedding); ok {
		entry.SemanticDistance = &d
	}
	return entry
}

// indexChunks keeps the first chunk seen at each position.
func indexChunks(chunks []types.Chunk) map[int]types.Chunk {
	byPos := make(map[int]types.Chunk, len(chunks))
	for _, c := range chunks {
		if _, ok := byPos[c.Position]; !ok {
			byPos[c.Position] = c
		}
	}
	return byPos
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CosineDistance returns 1 - cos(a, b), the same measure as pgvector's <=>
// operator. ok is false when either vector is empty, the lengths differ or
// a norm is zero.
func CosineDistance(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	d := 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	// rounding can push parallel vectors just outside [0, 2]
	return min(max(d, 0), 2), true
}
