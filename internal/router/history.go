package router

// History is a navigation stack. The last entry is the current view.
type History struct {
	entries []string
}

// NewHistory starts a history at path.
func NewHistory(path string) *History {
	return &History{entries: []string{path}}
}

// Current returns the active path.
func (h *History) Current() string {
	return h.entries[len(h.entries)-1]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Push navigates to path, keeping the current entry reachable by Back.
func (h *History) Push(path string) {
	if path == h.Current() {
		return
	}
	h.entries = append(h.entries, path)
}

// Replace swaps the current entry for path. When the previous entry is
// already path the current entry is dropped instead, so Back never lands
// on the same view twice.
func (h *History) Replace(path string) {
	last := len(h.entries) - 1
	if last > 0 && h.entries[last-1] == path {
		h.entries = h.entries[:last]
		return
	}
	h.entries[last] = path
}

// Navigate pushes or replaces depending on replace.
func (h *History) Navigate(path string, replace bool) {
	if replace {
		h.Replace(path)
		return
	}
	h.Push(path)
}

// Back pops the current entry. It reports false at the first entry.
func (h *History) Back() (string, bool) {
	if len(h.entries) == 1 {
		return h.Current(), false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.Current(), true
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
