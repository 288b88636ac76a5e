package httpadmin

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"school_points_bot/internal/app"
	"school_points_bot/internal/domain/ledger"

	"github.com/sirupsen/logrus"
)

// Server is the dashboard: a second client of the same persistence
// contract, editing the roster and admin list as whole tables the way the
// original spreadsheet-style panel does. It is meant to listen on
// localhost next to the data file and carries no authentication of its own.
type Server struct {
	store     ledger.Store
	broadcast *app.BroadcastService
	logger    *logrus.Entry
}

func NewServer(store ledger.Store, broadcast *app.BroadcastService, logger *logrus.Entry) *Server {
	return &Server{
		store:     store,
		broadcast: broadcast,
		logger:    logger.WithField("component", "httpadmin"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /students", s.listStudents)
	mux.HandleFunc("PUT /students", s.replaceStudents)
	mux.HandleFunc("GET /links", s.listLinks)
	mux.HandleFunc("GET /admins", s.listAdmins)
	mux.HandleFunc("PUT /admins", s.replaceAdmins)
	mux.HandleFunc("POST /broadcast", s.sendBroadcast)
	return mux
}

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		s.internalError(w, err, "load students")
		return
	}
	students := make([]*ledger.Student, 0, len(st.Students))
	for _, id := range st.SortedStudentIDs() {
		students = append(students, st.Students[id])
	}
	writeJSON(w, http.StatusOK, students)
}

// replaceStudents is the dashboard's bulk save: the whole table comes back
// and replaces the students collection. Links and admins are untouched.
func (s *Server) replaceStudents(w http.ResponseWriter, r *http.Request) {
	var rows []ledger.Student
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		http.Error(w, "невірний JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	seen := make(map[string]bool, len(rows))
	for i := range rows {
		rows[i].ID = strings.TrimSpace(rows[i].ID)
		if rows[i].ID == "" {
			http.Error(w, "порожній ID учня", http.StatusBadRequest)
			return
		}
		if seen[rows[i].ID] {
			http.Error(w, "ID мають бути унікальними: "+rows[i].ID, http.StatusBadRequest)
			return
		}
		seen[rows[i].ID] = true
		if rows[i].Age < 0 {
			http.Error(w, "вік не може бути від'ємним: "+rows[i].ID, http.StatusBadRequest)
			return
		}
	}

	err := s.store.Update(r.Context(), func(st *ledger.State) error {
		st.Students = make(map[string]*ledger.Student, len(rows))
		for i := range rows {
			row := rows[i]
			st.Students[row.ID] = &row
		}
		return nil
	})
	if err != nil {
		s.internalError(w, err, "replace students")
		return
	}
	s.logger.WithField("count", len(rows)).Info("Student table replaced via dashboard")
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(rows)})
}

type linkRow struct {
	TelegramUserID string `json:"telegram_user_id"`
	StudentID      string `json:"student_id"`
}

func (s *Server) listLinks(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		s.internalError(w, err, "load links")
		return
	}
	links := make([]linkRow, 0, len(st.TGLinks))
	for chatID, studentID := range st.TGLinks {
		links = append(links, linkRow{TelegramUserID: chatID, StudentID: studentID})
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].StudentID != links[j].StudentID {
			return links[i].StudentID < links[j].StudentID
		}
		return links[i].TelegramUserID < links[j].TelegramUserID
	})
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load(r.Context())
	if err != nil {
		s.internalError(w, err, "load admins")
		return
	}
	writeJSON(w, http.StatusOK, st.Admins)
}

func (s *Server) replaceAdmins(w http.ResponseWriter, r *http.Request) {
	var admins []string
	if err := json.NewDecoder(r.Body).Decode(&admins); err != nil {
		http.Error(w, "невірний JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	cleaned := make([]string, 0, len(admins))
	for _, a := range admins {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	err := s.store.Update(r.Context(), func(st *ledger.State) error {
		st.Admins = cleaned
		return nil
	})
	if err != nil {
		s.internalError(w, err, "replace admins")
		return
	}
	s.logger.WithField("count", len(cleaned)).Info("Admin list replaced via dashboard")
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(cleaned)})
}

type broadcastRequest struct {
	Text   string `json:"text"`
	Silent bool   `json:"silent"`
}

func (s *Server) sendBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "невірний JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "повідомлення не може бути порожнім", http.StatusBadRequest)
		return
	}
	sent, failed, err := s.broadcast.BroadcastAll(r.Context(), req.Text, req.Silent)
	if err != nil {
		s.internalError(w, err, "broadcast")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent, "failed": failed})
}

func (s *Server) internalError(w http.ResponseWriter, err error, op string) {
	s.logger.WithError(err).Error("Dashboard operation failed: " + op)
	http.Error(w, "внутрішня помилка", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
