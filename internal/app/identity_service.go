package app

import (
	"context"
	"fmt"

	"school_points_bot/internal/domain/ledger"

	"github.com/sirupsen/logrus"
)

// Application-level errors shared by the services. Handlers switch on these
// to pick the user-facing reply; ErrNotAuthorized in particular is rendered
// as silence so non-admins never learn the admin surface exists.
var ErrNotAuthorized = fmt.Errorf("caller is not an admin")
var ErrPINNotFound = fmt.Errorf("no student with this PIN")
var ErrWrongSecret = fmt.Errorf("wrong admin secret")
var ErrNotLinked = fmt.Errorf("chat identity is not linked to a student")
var ErrStudentNotFound = fmt.Errorf("student not found")
var ErrStudentExists = fmt.Errorf("student with this ID already exists")

// IdentityService binds chat identities to student records and manages the
// admin set.
type IdentityService struct {
	store       ledger.Store
	adminSecret string
	logger      *logrus.Entry
}

func NewIdentityService(store ledger.Store, adminSecret string, logger *logrus.Entry) *IdentityService {
	return &IdentityService{
		store:       store,
		adminSecret: adminSecret,
		logger:      logger.WithField("service", "identity"),
	}
}

// Bind links the chat id to the student whose PIN matches. Students are
// scanned in ascending id order, so if two students share a PIN the lowest
// id always wins; PIN uniqueness cannot be enforced here because the
// dashboard edits the same store independently. Rebinding overwrites the
// existing link.
func (s *IdentityService) Bind(ctx context.Context, chatID, pin string) (*ledger.Student, error) {
	var bound *ledger.Student
	err := s.store.Update(ctx, func(st *ledger.State) error {
		for _, id := range st.SortedStudentIDs() {
			stu := st.Students[id]
			if stu.PIN == pin {
				st.TGLinks[chatID] = stu.ID
				bound = stu
				return nil
			}
		}
		return ErrPINNotFound
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"chat_id": chatID, "student_id": bound.ID}).Info("Chat identity bound to student")
	return bound, nil
}

// Promote grants admin to the chat id if the supplied secret matches the
// configured one. Promoting an existing admin is a no-op.
func (s *IdentityService) Promote(ctx context.Context, chatID, suppliedSecret string) error {
	if suppliedSecret != s.adminSecret {
		s.logger.WithField("chat_id", chatID).Warn("Admin promotion attempt with wrong secret")
		return ErrWrongSecret
	}
	err := s.store.Update(ctx, func(st *ledger.State) error {
		st.AddAdmin(chatID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist admin promotion: %w", err)
	}
	s.logger.WithField("chat_id", chatID).Info("Chat identity promoted to admin")
	return nil
}

// Resolve returns the student linked to the chat id, or ErrNotLinked when
// there is no link or the link is orphaned.
func (s *IdentityService) Resolve(ctx context.Context, chatID string) (*ledger.Student, error) {
	st, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	stu := st.LinkedStudent(chatID)
	if stu == nil {
		return nil, ErrNotLinked
	}
	return stu, nil
}

// IsAdmin reports admin-set membership for the chat id.
func (s *IdentityService) IsAdmin(ctx context.Context, chatID string) bool {
	st, err := s.store.Load(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Could not load state for admin check")
		return false
	}
	return st.IsAdmin(chatID)
}
