package app

import (
	"context"
	"testing"

	"school_points_bot/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminChatID = "42"

func newLedgerFixture(t *testing.T, st *ledger.State) (*LedgerService, ledger.Store) {
	t.Helper()
	st.AddAdmin(adminChatID)
	store := newTestStore(t, st)
	return NewLedgerService(store, testLogger()), store
}

func TestSetPoints(t *testing.T) {
	svc, store := newLedgerFixture(t, twoStudentState())

	require.NoError(t, svc.SetPoints(context.Background(), adminChatID, "1", 100))

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, st.Students["1"].Points)
}

func TestSetPoints_UnknownStudent(t *testing.T) {
	svc, _ := newLedgerFixture(t, twoStudentState())
	assert.ErrorIs(t, svc.SetPoints(context.Background(), adminChatID, "99", 10), ErrStudentNotFound)
}

func TestGivePoints_AdditiveAndUnclamped(t *testing.T) {
	svc, store := newLedgerFixture(t, twoStudentState())

	require.NoError(t, svc.GivePoints(context.Background(), adminChatID, "1", 7))
	require.NoError(t, svc.GivePoints(context.Background(), adminChatID, "1", -40))

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	// Same end state as a single absolute set of 25 + 7 - 40.
	assert.Equal(t, -8, st.Students["1"].Points)
}

func TestUnauthorizedCallsAreNoOps(t *testing.T) {
	svc, store := newLedgerFixture(t, twoStudentState())

	assert.ErrorIs(t, svc.SetPoints(context.Background(), "999", "1", 0), ErrNotAuthorized)
	assert.ErrorIs(t, svc.GivePoints(context.Background(), "999", "1", 5), ErrNotAuthorized)
	_, err := svc.AddStudent(context.Background(), "999", "9|Хтось|9999|7-А|13|2|0")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.ErrorIs(t, svc.EditStudent(context.Background(), "999", "1", "points", "0"), ErrNotAuthorized)
	assert.ErrorIs(t, svc.DeleteStudent(context.Background(), "999", "1"), ErrNotAuthorized)

	// A malformed payload from a non-admin is still just unauthorized, so
	// the caller learns nothing about the expected format.
	_, err = svc.AddStudent(context.Background(), "999", "garbage")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, st.Students["1"].Points)
	assert.Len(t, st.Students, 2)
}

func TestAddStudent(t *testing.T) {
	svc, store := newLedgerFixture(t, twoStudentState())

	stu, err := svc.AddStudent(context.Background(), adminChatID, "4|Олена Іваненко|4444|7-Б|12|1|5")
	require.NoError(t, err)
	assert.Equal(t, "4", stu.ID)

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Олена Іваненко", st.Students["4"].FullName)
	assert.Equal(t, 5, st.Students["4"].Points)
}

func TestAddStudent_DuplicateIDRejectedStably(t *testing.T) {
	svc, store := newLedgerFixture(t, twoStudentState())
	payload := "1|Самозванець|0000|7-В|10|1|999"

	_, err := svc.AddStudent(context.Background(), adminChatID, payload)
	assert.ErrorIs(t, err, ErrStudentExists)
	// Repeating the call yields the same error and the same end state.
	_, err = svc.AddStudent(context.Background(), adminChatID, payload)
	assert.ErrorIs(t, err, ErrStudentExists)

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Богдан Кокушко", st.Students["1"].FullName)
	assert.Equal(t, 25, st.Students["1"].Points)
}

func TestAddStudent_MalformedPayload(t *testing.T) {
	svc, _ := newLedgerFixture(t, twoStudentState())

	for _, raw := range []string{"", "без роздільника", "4|лише|чотири|поля", "4|Ім|4444|7-Б|вік|1|0"} {
		_, err := svc.AddStudent(context.Background(), adminChatID, raw)
		assert.ErrorIs(t, err, ledger.ErrInvalidInput, raw)
	}
}

func TestEditStudent(t *testing.T) {
	svc, store := newLedgerFixture(t, twoStudentState())

	require.NoError(t, svc.EditStudent(context.Background(), adminChatID, "1", "full_name", "Нове Довге Імʼя"))
	require.NoError(t, svc.EditStudent(context.Background(), adminChatID, "1", "points", "33"))

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Нове Довге Імʼя", st.Students["1"].FullName)
	assert.Equal(t, 33, st.Students["1"].Points)
}

func TestEditStudent_InvalidNumericLeavesRecordUnmutated(t *testing.T) {
	svc, store := newLedgerFixture(t, twoStudentState())

	err := svc.EditStudent(context.Background(), adminChatID, "1", "points", "abc")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, st.Students["1"].Points)
}

func TestEditStudent_UnknownFieldAndStudent(t *testing.T) {
	svc, _ := newLedgerFixture(t, twoStudentState())

	assert.ErrorIs(t, svc.EditStudent(context.Background(), adminChatID, "1", "nickname", "x"), ledger.ErrInvalidField)
	assert.ErrorIs(t, svc.EditStudent(context.Background(), adminChatID, "99", "points", "1"), ErrStudentNotFound)
}

func TestDeleteStudent_CascadesAllLinks(t *testing.T) {
	st := twoStudentState()
	st.TGLinks["100"] = "1"
	st.TGLinks["200"] = "1"
	st.TGLinks["300"] = "2"
	svc, store := newLedgerFixture(t, st)
	identity := NewIdentityService(store, testSecret, testLogger())

	require.NoError(t, svc.DeleteStudent(context.Background(), adminChatID, "1"))

	for _, chatID := range []string{"100", "200"} {
		_, err := identity.Resolve(context.Background(), chatID)
		assert.ErrorIs(t, err, ErrNotLinked, chatID)
	}
	resolved, err := identity.Resolve(context.Background(), "300")
	require.NoError(t, err)
	assert.Equal(t, "2", resolved.ID)
}

func TestDeleteStudent_Unknown(t *testing.T) {
	svc, _ := newLedgerFixture(t, twoStudentState())
	assert.ErrorIs(t, svc.DeleteStudent(context.Background(), adminChatID, "99"), ErrStudentNotFound)
}
