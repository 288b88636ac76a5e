package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"school_points_bot/internal/domain/ledger"
	"school_points_bot/internal/infra/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// newTestStore returns a file store over a temp path, pre-saved with the
// given state so the demo-roster seeding never kicks in.
func newTestStore(t *testing.T, st *ledger.State) ledger.Store {
	t.Helper()
	store := storage.NewJSONFileStore(filepath.Join(t.TempDir(), "data.json"), testLogger())
	require.NoError(t, store.Save(context.Background(), st))
	return store
}

// twoStudentState mirrors the roster used across the service tests:
// students 1 (pin 1111, 25 points) and 2 (pin 2222, 40 points) in 7-А.
func twoStudentState() *ledger.State {
	st := ledger.NewState()
	st.Students["1"] = &ledger.Student{ID: "1", FullName: "Богдан Кокушко", PIN: "1111", Class: "7-А", Age: 13, Year: 2, Points: 25}
	st.Students["2"] = &ledger.Student{ID: "2", FullName: "Данило Шутяк", PIN: "2222", Class: "7-А", Age: 13, Year: 2, Points: 40}
	return st
}
