package ledger

import (
	"sort"
	"strings"
)

// State is the full persisted document. Three collections, one file:
// this shape is the compatibility contract shared with the dashboard
// and with data.json files written by earlier deployments.
type State struct {
	Students map[string]*Student `json:"students"`
	TGLinks  map[string]string   `json:"tg_links"`
	Admins   []string            `json:"admins"`
}

// NewState returns an empty but structurally valid state.
func NewState() *State {
	return &State{
		Students: make(map[string]*Student),
		TGLinks:  make(map[string]string),
		Admins:   []string{},
	}
}

// Normalize fills in any collection missing from a loaded document, so a
// hand-edited or partially written file never produces nil maps downstream.
func (st *State) Normalize() {
	if st.Students == nil {
		st.Students = make(map[string]*Student)
	}
	if st.TGLinks == nil {
		st.TGLinks = make(map[string]string)
	}
	if st.Admins == nil {
		st.Admins = []string{}
	}
}

// SortedStudentIDs returns all student ids in ascending order. Iteration
// over the students map is randomized in Go, so every scan that needs a
// deterministic outcome (PIN binding, leaderboard ties) goes through this.
func (st *State) SortedStudentIDs() []string {
	ids := make([]string, 0, len(st.Students))
	for id := range st.Students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsAdmin reports whether the chat id is in the admin set. Comparison is
// on trimmed strings: the dashboard lets a human paste the list.
func (st *State) IsAdmin(chatID string) bool {
	chatID = strings.TrimSpace(chatID)
	for _, a := range st.Admins {
		if strings.TrimSpace(a) == chatID {
			return true
		}
	}
	return false
}

// AddAdmin grants admin to the chat id. Adding an existing admin is a no-op.
func (st *State) AddAdmin(chatID string) {
	if st.IsAdmin(chatID) {
		return
	}
	st.Admins = append(st.Admins, strings.TrimSpace(chatID))
}

// LinkedStudent resolves a chat id through tg_links to a student. An
// orphaned link (student deleted behind the dashboard's back) counts as
// not linked.
func (st *State) LinkedStudent(chatID string) *Student {
	sid, ok := st.TGLinks[chatID]
	if !ok {
		return nil
	}
	return st.Students[sid]
}

// RemoveStudent deletes the student and cascades over tg_links, removing
// every link that targets it.
func (st *State) RemoveStudent(studentID string) {
	delete(st.Students, studentID)
	for chatID, sid := range st.TGLinks {
		if sid == studentID {
			delete(st.TGLinks, chatID)
		}
	}
}
