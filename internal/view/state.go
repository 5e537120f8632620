// Package view holds the page-scoped view state shared by every dashboard
// page: the fetch lifecycle of each independent slot, and the derived
// state kept consistent with fetched data.
package view

// State is the lifecycle state of one fetch slot.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Key builds the slot key for a piece of page state owned by one session.
func Key(sessionID, page, id, slot string) string {
	if id == "" {
		id = "-"
	}
	return sessionID + ":" + page + ":" + id + ":" + slot
}
