package view

// DefaultWindow is the number of tickets listed before "Show More".
const DefaultWindow = 5

// Window is the collapsible prefix of a list.
type Window struct {
	Limit    int
	Expanded bool
}

// HasMore reports whether a list of n items overflows the collapsed window.
func (w Window) HasMore(n int) bool {
	return n > w.Limit
}

// Toggled returns the window with its expanded flag flipped.
func (w Window) Toggled() Window {
	w.Expanded = !w.Expanded
	return w
}

// Visible returns the items shown through w.
func Visible[T any](items []T, w Window) []T {
	if w.Expanded || len(items) <= w.Limit {
		return items
	}
	return items[:w.Limit]
}
