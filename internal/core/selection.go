package core

// Selection tracks the drill-down choice of a single aggregate view: at
// most one selected key at a time. Every view owns its own instance, so
// selecting in one view never disturbs another. Selection is derived UI
// state; it is never persisted.
type Selection[K comparable] struct {
	key      K
	selected bool
}

// Click applies a user selection of key k and reports whether k is now
// selected. Clicking the currently selected key toggles the selection off.
// Clicking a different key replaces the selection directly, with no
// observable unselected state in between.
func (s *Selection[K]) Click(k K) bool {
	if s.selected && s.key == k {
		s.Reset()
		return false
	}
	s.key = k
	s.selected = true
	return true
}

// Current returns the selected key, if any.
func (s *Selection[K]) Current() (K, bool) {
	return s.key, s.selected
}

// Reset returns the selection to the unselected state. Called whenever the
// underlying event set is replaced by a fresh fetch.
func (s *Selection[K]) Reset() {
	var zero K
	s.key = zero
	s.selected = false
}
