package app

import (
	"context"

	"school_points_bot/internal/domain/ledger"

	"github.com/sirupsen/logrus"
)

// LedgerService applies admin-gated point mutations and roster edits. Every
// operation takes the calling chat id and returns ErrNotAuthorized when the
// caller is not in the admin set; the mutation and the authorization check
// run inside a single store update cycle.
type LedgerService struct {
	store  ledger.Store
	logger *logrus.Entry
}

func NewLedgerService(store ledger.Store, logger *logrus.Entry) *LedgerService {
	return &LedgerService{store: store, logger: logger.WithField("service", "ledger")}
}

// SetPoints overwrites the student's balance.
func (s *LedgerService) SetPoints(ctx context.Context, callerChatID, studentID string, points int) error {
	return s.authorizedUpdate(ctx, callerChatID, func(st *ledger.State) error {
		stu, ok := st.Students[studentID]
		if !ok {
			return ErrStudentNotFound
		}
		stu.Points = points
		s.logger.WithFields(logrus.Fields{"caller": callerChatID, "student_id": studentID, "points": points}).Info("Points set")
		return nil
	})
}

// GivePoints adjusts the balance by delta. The balance may go negative;
// there is no clamping.
func (s *LedgerService) GivePoints(ctx context.Context, callerChatID, studentID string, delta int) error {
	return s.authorizedUpdate(ctx, callerChatID, func(st *ledger.State) error {
		stu, ok := st.Students[studentID]
		if !ok {
			return ErrStudentNotFound
		}
		stu.Points += delta
		s.logger.WithFields(logrus.Fields{"caller": callerChatID, "student_id": studentID, "delta": delta, "points": stu.Points}).Info("Points adjusted")
		return nil
	})
}

// AddStudent parses the pipe-delimited payload and inserts the record.
// An existing id is rejected rather than silently overwritten; edits go
// through EditStudent.
func (s *LedgerService) AddStudent(ctx context.Context, callerChatID, rawPayload string) (*ledger.Student, error) {
	var stu *ledger.Student
	err := s.authorizedUpdate(ctx, callerChatID, func(st *ledger.State) error {
		// Parsing happens after the admin check so non-admins get silence,
		// never a format reminder.
		parsed, err := ledger.ParseStudent(rawPayload)
		if err != nil {
			return err
		}
		if _, exists := st.Students[parsed.ID]; exists {
			return ErrStudentExists
		}
		st.Students[parsed.ID] = parsed
		stu = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"caller": callerChatID, "student_id": stu.ID}).Info("Student added")
	return stu, nil
}

// EditStudent overwrites one editable field. Validation failures leave the
// record untouched.
func (s *LedgerService) EditStudent(ctx context.Context, callerChatID, studentID, field, value string) error {
	return s.authorizedUpdate(ctx, callerChatID, func(st *ledger.State) error {
		stu, ok := st.Students[studentID]
		if !ok {
			return ErrStudentNotFound
		}
		if err := stu.SetField(field, value); err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{"caller": callerChatID, "student_id": studentID, "field": field}).Info("Student field updated")
		return nil
	})
}

// DeleteStudent removes the student and cascades removal of every chat link
// that targets it.
func (s *LedgerService) DeleteStudent(ctx context.Context, callerChatID, studentID string) error {
	return s.authorizedUpdate(ctx, callerChatID, func(st *ledger.State) error {
		if _, ok := st.Students[studentID]; !ok {
			return ErrStudentNotFound
		}
		st.RemoveStudent(studentID)
		s.logger.WithFields(logrus.Fields{"caller": callerChatID, "student_id": studentID}).Info("Student deleted, links cascaded")
		return nil
	})
}

// authorizedUpdate wraps a mutation with the admin check inside the same
// update cycle, so a concurrent demotion cannot slip between check and
// write.
func (s *LedgerService) authorizedUpdate(ctx context.Context, callerChatID string, mutate func(*ledger.State) error) error {
	return s.store.Update(ctx, func(st *ledger.State) error {
		if !st.IsAdmin(callerChatID) {
			s.logger.WithField("caller", callerChatID).Warn("Unauthorized ledger operation ignored")
			return ErrNotAuthorized
		}
		return mutate(st)
	})
}
