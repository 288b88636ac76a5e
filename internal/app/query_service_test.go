package app

import (
	"context"
	"fmt"
	"testing"

	"school_points_bot/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueryFixture(t *testing.T, st *ledger.State) (*QueryService, *IdentityService) {
	t.Helper()
	store := newTestStore(t, st)
	identity := NewIdentityService(store, testSecret, testLogger())
	return NewQueryService(store, identity), identity
}

func TestBindThenBalance(t *testing.T) {
	query, identity := newQueryFixture(t, twoStudentState())

	_, err := identity.Bind(context.Background(), "500", "2222")
	require.NoError(t, err)

	name, points, err := query.Balance(context.Background(), "500")
	require.NoError(t, err)
	assert.Equal(t, "Данило Шутяк", name)
	assert.Equal(t, 40, points)
}

func TestBalance_Unlinked(t *testing.T) {
	query, _ := newQueryFixture(t, twoStudentState())
	_, _, err := query.Balance(context.Background(), "500")
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestLeaderboard_SortsByPointsDescending(t *testing.T) {
	query, _ := newQueryFixture(t, twoStudentState())

	rows, err := query.Leaderboard(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, LeaderboardRow{Name: "Данило Шутяк", Points: 40, Class: "7-А"}, rows[0])
	assert.Equal(t, LeaderboardRow{Name: "Богдан Кокушко", Points: 25, Class: "7-А"}, rows[1])
}

func TestLeaderboard_ClassFilter(t *testing.T) {
	st := twoStudentState()
	st.Students["3"] = &ledger.Student{ID: "3", FullName: "Захар Дідун", PIN: "3333", Class: "7-Б", Age: 13, Year: 2, Points: 15}
	query, _ := newQueryFixture(t, st)

	class := "7-Б"
	rows, err := query.Leaderboard(context.Background(), &class, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Захар Дідун", rows[0].Name)
	for _, r := range rows {
		assert.Equal(t, class, r.Class)
	}
}

func TestLeaderboard_LimitTruncates(t *testing.T) {
	st := ledger.NewState()
	for i := 1; i <= 15; i++ {
		id := fmt.Sprintf("%02d", i)
		st.Students[id] = &ledger.Student{ID: id, FullName: "Учень " + id, Points: i}
	}
	query, _ := newQueryFixture(t, st)

	rows, err := query.Leaderboard(context.Background(), nil, 5)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, 15, rows[0].Points)
	assert.Equal(t, 11, rows[4].Points)

	// Zero limit falls back to the default of 10.
	rows, err = query.Leaderboard(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, rows, DefaultLeaderboardLimit)
}

func TestLeaderboard_TieBrokenByIDAscending(t *testing.T) {
	st := ledger.NewState()
	st.Students["3"] = &ledger.Student{ID: "3", FullName: "Третій", Points: 20}
	st.Students["1"] = &ledger.Student{ID: "1", FullName: "Перший", Points: 20}
	st.Students["2"] = &ledger.Student{ID: "2", FullName: "Другий", Points: 20}
	query, _ := newQueryFixture(t, st)

	rows, err := query.Leaderboard(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Перший", rows[0].Name)
	assert.Equal(t, "Другий", rows[1].Name)
	assert.Equal(t, "Третій", rows[2].Name)
}

func TestProfile(t *testing.T) {
	query, identity := newQueryFixture(t, twoStudentState())

	_, err := identity.Bind(context.Background(), "500", "1111")
	require.NoError(t, err)

	profile, err := query.Profile(context.Background(), "500")
	require.NoError(t, err)
	assert.Equal(t, "Богдан Кокушко", profile.FullName)
	assert.Equal(t, "7-А", profile.Class)
	assert.Equal(t, 13, profile.Age)
	assert.Equal(t, 2, profile.Year)
	assert.Equal(t, 25, profile.Points)
}

func TestFormatLeaderboard(t *testing.T) {
	rows := []LeaderboardRow{
		{Name: "Данило Шутяк", Points: 40, Class: "7-А"},
		{Name: "Богдан Кокушко", Points: 25, Class: "7-А"},
	}
	text := FormatLeaderboard(rows, nil)
	assert.Equal(t, "🏆 Лідери:\n1. Данило Шутяк — 40 балів (7-А)\n2. Богдан Кокушко — 25 балів (7-А)", text)

	class := "7-А"
	assert.Contains(t, FormatLeaderboard(rows, &class), "🏆 Лідери — 7-А:")

	assert.Equal(t, "Немає даних.", FormatLeaderboard(nil, nil))
}
