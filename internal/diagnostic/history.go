package diagnostic

import "reflect"

// History keeps the trees an author moved through so edits can be undone.
// It is owned by a single authoring flow.
type History struct {
	past    []DraftTree
	current DraftTree
	future  []DraftTree
	saved   DraftTree
}

func NewHistory(d DraftTree) *History {
	return &History{current: d, saved: d}
}

func (h *History) Current() DraftTree { return h.current }

// Apply records d as the new current tree and drops the redo stack.
func (h *History) Apply(d DraftTree) {
	h.past = append(h.past, h.current)
	h.current = d
	h.future = nil
}

// Do runs a fallible draft operation against the current tree and records
// its result. On error nothing is recorded.
func (h *History) Do(op func(DraftTree) (DraftTree, error)) error {
	d, err := op(h.current)
	if err != nil {
		return err
	}
	h.Apply(d)
	return nil
}

func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	h.future = append(h.future, h.current)
	h.current = h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return true
}

func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	h.past = append(h.past, h.current)
	h.current = h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return true
}

// MarkSaved makes d, the tree returned by a successful save, the new root:
// it becomes current and the Dirty baseline, and both undo and redo stacks
// are dropped. Earlier trees carry ephemeral IDs and no test ID, so undoing
// back to one of them would create the test a second time on the next save.
func (h *History) MarkSaved(d DraftTree) {
	h.past = nil
	h.future = nil
	h.current = d
	h.saved = d
}

// Dirty reports whether the current tree differs from the saved baseline.
func (h *History) Dirty() bool {
	return !reflect.DeepEqual(h.current.t, h.saved.t)
}
