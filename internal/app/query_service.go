package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"school_points_bot/internal/domain/ledger"
)

// DefaultLeaderboardLimit caps leaderboard output when no limit is given.
const DefaultLeaderboardLimit = 10

// LeaderboardRow is one ranked projection entry.
type LeaderboardRow struct {
	Name   string
	Points int
	Class  string
}

// QueryService derives read-only projections from the store. No
// authorization beyond identity resolution where a query is self-scoped.
type QueryService struct {
	store    ledger.Store
	identity *IdentityService
}

func NewQueryService(store ledger.Store, identity *IdentityService) *QueryService {
	return &QueryService{store: store, identity: identity}
}

// Leaderboard returns up to limit students sorted by points descending,
// ties broken by student id ascending. A non-nil classFilter keeps only
// students of exactly that class.
func (s *QueryService) Leaderboard(ctx context.Context, classFilter *string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		id  string
		row LeaderboardRow
	}
	rows := make([]ranked, 0, len(st.Students))
	for _, id := range st.SortedStudentIDs() {
		stu := st.Students[id]
		if classFilter != nil && stu.Class != *classFilter {
			continue
		}
		rows = append(rows, ranked{id: id, row: LeaderboardRow{Name: stu.FullName, Points: stu.Points, Class: stu.Class}})
	}
	// Stable over the id-ascending input, so equal point totals keep id order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].row.Points > rows[j].row.Points
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]LeaderboardRow, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}
	return out, nil
}

// Balance resolves the caller and returns their name and point balance.
func (s *QueryService) Balance(ctx context.Context, chatID string) (string, int, error) {
	stu, err := s.identity.Resolve(ctx, chatID)
	if err != nil {
		return "", 0, err
	}
	return stu.FullName, stu.Points, nil
}

// Profile resolves the caller and returns the full record projection.
func (s *QueryService) Profile(ctx context.Context, chatID string) (*ledger.Student, error) {
	return s.identity.Resolve(ctx, chatID)
}

// FormatLeaderboard renders leaderboard rows as the reply text used by both
// the bot commands and the scheduled digest.
func FormatLeaderboard(rows []LeaderboardRow, classFilter *string) string {
	if len(rows) == 0 {
		return "Немає даних."
	}
	var b strings.Builder
	b.WriteString("🏆 Лідери")
	if classFilter != nil {
		b.WriteString(" — " + *classFilter)
	}
	b.WriteString(":")
	for i, r := range rows {
		b.WriteString(fmt.Sprintf("\n%d. %s — %d балів (%s)", i+1, r.Name, r.Points, r.Class))
	}
	return b.String()
}
