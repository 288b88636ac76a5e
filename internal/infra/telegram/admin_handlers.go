package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"school_points_bot/internal/app"
	"school_points_bot/internal/domain/ledger"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterAdminHandlers registers the gated ledger commands. Authorization
// lives in the services; when one returns ErrNotAuthorized the handler
// replies with nothing at all, so non-admins never see that the command
// exists.
func RegisterAdminHandlers(
	ctx context.Context,
	b *telebot.Bot,
	ledgerSvc *app.LedgerService,
	broadcastSvc *app.BroadcastService,
	identity *app.IdentityService,
	baseLogger *logrus.Entry,
) {
	senderID := func(c telebot.Context) string {
		return strconv.FormatInt(c.Sender().ID, 10)
	}

	b.Handle("/set", func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/set", "sender_id": chatID})
		args := c.Args()
		if len(args) < 2 {
			if !identity.IsAdmin(ctx, chatID) {
				return nil
			}
			return c.Send("Формат: /set <student_id> <points>")
		}
		points, err := strconv.Atoi(args[1])
		if err != nil {
			if !identity.IsAdmin(ctx, chatID) {
				return nil
			}
			return c.Send("Бали мають бути цілим числом.")
		}
		err = ledgerSvc.SetPoints(ctx, chatID, args[0], points)
		switch {
		case errors.Is(err, app.ErrNotAuthorized):
			return nil
		case errors.Is(err, app.ErrStudentNotFound):
			return c.Send("Учня з таким ID немає.")
		case err != nil:
			logCtx.WithError(err).Error("Failed to set points")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send("Оновлено ✅")
	})

	b.Handle("/give", func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/give", "sender_id": chatID})
		args := c.Args()
		if len(args) < 2 {
			if !identity.IsAdmin(ctx, chatID) {
				return nil
			}
			return c.Send("Формат: /give <student_id> <delta>")
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			if !identity.IsAdmin(ctx, chatID) {
				return nil
			}
			return c.Send("Дельта має бути цілим числом.")
		}
		err = ledgerSvc.GivePoints(ctx, chatID, args[0], delta)
		switch {
		case errors.Is(err, app.ErrNotAuthorized):
			return nil
		case errors.Is(err, app.ErrStudentNotFound):
			return c.Send("Учня з таким ID немає.")
		case err != nil:
			logCtx.WithError(err).Error("Failed to give points")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send("Готово ✅")
	})

	b.Handle("/add_student", func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/add_student", "sender_id": chatID})
		raw := strings.Join(c.Args(), " ")
		student, err := ledgerSvc.AddStudent(ctx, chatID, raw)
		switch {
		case errors.Is(err, app.ErrNotAuthorized):
			return nil
		case errors.Is(err, app.ErrStudentExists):
			return c.Send("Учень з таким ID вже існує.")
		case errors.Is(err, ledger.ErrInvalidInput) && !strings.Contains(raw, "|"):
			return c.Send("Формат: /add_student id|full_name|pin|class|age|year|points")
		case errors.Is(err, ledger.ErrInvalidInput):
			logCtx.Info("Malformed add_student payload")
			return c.Send("Формат неповний. Потрібно 7 полів, числові поля — цілі.")
		case err != nil:
			logCtx.WithError(err).Error("Failed to add student")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		logCtx.WithField("student_id", student.ID).Info("Student added via bot")
		return c.Send("Учня додано ✅")
	})

	b.Handle("/edit_student", func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/edit_student", "sender_id": chatID})
		args := c.Args()
		if len(args) < 3 {
			if !identity.IsAdmin(ctx, chatID) {
				return nil
			}
			return c.Send("Формат: /edit_student <id> <field> <value>")
		}
		studentID, field := args[0], args[1]
		value := strings.Join(args[2:], " ")
		err := ledgerSvc.EditStudent(ctx, chatID, studentID, field, value)
		switch {
		case errors.Is(err, app.ErrNotAuthorized):
			return nil
		case errors.Is(err, app.ErrStudentNotFound):
			return c.Send("Учня з таким ID немає.")
		case errors.Is(err, ledger.ErrInvalidField):
			return c.Send("Дозволені поля: full_name, pin, class, age, year, points")
		case errors.Is(err, ledger.ErrInvalidInput):
			return c.Send("Значення має бути цілим числом (вік — невід'ємним).")
		case err != nil:
			logCtx.WithError(err).Error("Failed to edit student")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send("Оновлено ✅")
	})

	b.Handle("/del_student", func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/del_student", "sender_id": chatID})
		args := c.Args()
		if len(args) < 1 {
			if !identity.IsAdmin(ctx, chatID) {
				return nil
			}
			return c.Send("Формат: /del_student <id>")
		}
		err := ledgerSvc.DeleteStudent(ctx, chatID, args[0])
		switch {
		case errors.Is(err, app.ErrNotAuthorized):
			return nil
		case errors.Is(err, app.ErrStudentNotFound):
			return c.Send("Учня з таким ID немає.")
		case err != nil:
			logCtx.WithError(err).Error("Failed to delete student")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send("Видалено ✅")
	})

	b.Handle("/broadcast", func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/broadcast", "sender_id": chatID})
		if !identity.IsAdmin(ctx, chatID) {
			return nil
		}
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Формат: /broadcast <повідомлення>")
		}
		sent, failed, err := broadcastSvc.BroadcastAll(ctx, strings.Join(args, " "), false)
		if err != nil {
			logCtx.WithError(err).Error("Broadcast failed to start")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		if failed > 0 {
			return c.Send(fmt.Sprintf("Надіслано: %d, помилок: %d", sent, failed))
		}
		return c.Send(fmt.Sprintf("Надіслано: %d", sent))
	})
}
