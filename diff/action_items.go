package diff

import (
	"cmp"
	"slices"

	"docledger/types"
)

// itemKey is the content projection used as the equality key for action
// items. Row ids, version ids, timestamps and extraction confidence are
// regenerated on every version and must stay out of it.
type itemKey struct {
	taskText     string
	originalText string
	hasOriginal  bool
	assignee     string
	hasAssignee  bool
	dueDate      string
	priority     string
	hasPriority  bool
}

func keyOf(item types.ActionItem) itemKey {
	k := itemKey{taskText: item.TaskText}
	if item.OriginalText != nil {
		k.originalText, k.hasOriginal = *item.OriginalText, true
	}
	if item.Assignee != nil {
		k.assignee, k.hasAssignee = *item.Assignee, true
	}
	if item.DueDate != nil {
		k.dueDate = item.DueDate.Format("2006-01-02")
	}
	if item.Priority != nil {
		k.priority, k.hasPriority = *item.Priority, true
	}
	return k
}

func compareKeys(a, b itemKey) int {
	return cmp.Or(
		cmp.Compare(a.taskText, b.taskText),
		compareOptional(a.originalText, a.hasOriginal, b.originalText, b.hasOriginal),
		compareOptional(a.assignee, a.hasAssignee, b.assignee, b.hasAssignee),
		cmp.Compare(a.dueDate, b.dueDate),
		compareOptional(a.priority, a.hasPriority, b.priority, b.hasPriority),
	)
}

func compareOptional(a string, hasA bool, b string, hasB bool) int {
	if hasA != hasB {
		if !hasA {
			return -1
		}
		return 1
	}
	return cmp.Compare(a, b)
}

// indexItems keeps the first item seen for each content key.
func indexItems(items []types.ActionItem) map[itemKey]types.ActionItem {
	set := make(map[itemKey]types.ActionItem, len(items))
	for _, item := range items {
		k := keyOf(item)
		if _, ok := set[k]; !ok {
			set[k] = item
		}
	}
	return set
}

// CompareActionItems partitions two action item sets by content equality:
// present in both is Unchanged, only in from is Removed, only in to is
// Added. Items with identical content on one side collapse into one entry.
// Entries are sorted by status (Added, Removed, Unchanged) then content.
func CompareActionItems(from, to []types.ActionItem) []Entry[types.ActionItem] {
	fromSet := indexItems(from)
	toSet := indexItems(to)

	type keyed struct {
		key   itemKey
		entry Entry[types.ActionItem]
	}
	out := make([]keyed, 0, len(fromSet)+len(toSet))

	for k, item := range fromSet {
		if toItem, ok := toSet[k]; ok {
			out = append(out, keyed{k, Entry[types.ActionItem]{Status: Unchanged, Item: toItem}})
		} else {
			out = append(out, keyed{k, Entry[types.ActionItem]{Status: Removed, Item: item}})
		}
	}
	for k, item := range toSet {
		if _, ok := fromSet[k]; !ok {
			out = append(out, keyed{k, Entry[types.ActionItem]{Status: Added, Item: item}})
		}
	}

	slices.SortFunc(out, func(a, b keyed) int {
		return cmp.Or(
			cmp.Compare(a.entry.Status.rank(), b.entry.Status.rank()),
			compareKeys(a.key, b.key),
		)
	})

	entries := make([]Entry[types.ActionItem], len(out))
	for i := range out {
		entries[i] = out[i].entry
	}
	return entries
}
