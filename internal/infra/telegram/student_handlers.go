package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"school_points_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const linkFirstReply = "Спочатку /link <PIN>."

// RegisterStudentHandlers registers the open and self-scoped commands plus
// the reply-keyboard button routing. Free text that is not a known button
// label is ignored.
func RegisterStudentHandlers(
	ctx context.Context,
	b *telebot.Bot,
	identity *app.IdentityService,
	query *app.QueryService,
	baseLogger *logrus.Entry,
) {
	senderID := func(c telebot.Context) string {
		return strconv.FormatInt(c.Sender().ID, 10)
	}

	start := func(c telebot.Context) error {
		chatID := senderID(c)
		baseLogger.WithFields(logrus.Fields{"handler": "/start", "sender_id": chatID}).Info("Command received")
		return c.Send(
			"Привіт! Я твій шкільний бот 👋 Обирай кнопку нижче.\n"+
				"Щоб під’єднати профіль, введи: /link PIN (PIN дасть вчитель).\n",
			mainKeyboard(identity.IsAdmin(ctx, chatID)),
		)
	}

	link := func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/link", "sender_id": chatID})
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Вкажіть PIN: /link 1234")
		}
		student, err := identity.Bind(ctx, chatID, args[0])
		if err != nil {
			if errors.Is(err, app.ErrPINNotFound) {
				logCtx.Info("Bind attempt with unknown PIN")
				return c.Send("PIN не знайдено. Перевірте у вчителя.")
			}
			logCtx.WithError(err).Error("Failed to bind chat identity")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send(
			fmt.Sprintf("Привʼязано до: %s", student.FullName),
			mainKeyboard(identity.IsAdmin(ctx, chatID)),
		)
	}

	admin := func(c telebot.Context) error {
		chatID := senderID(c)
		logCtx := baseLogger.WithFields(logrus.Fields{"handler": "/admin", "sender_id": chatID})
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Пароль?: /admin <пароль>")
		}
		if err := identity.Promote(ctx, chatID, args[0]); err != nil {
			if errors.Is(err, app.ErrWrongSecret) {
				return c.Send("Невірний пароль.")
			}
			logCtx.WithError(err).Error("Failed to promote admin")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send("Готово! Адмін‑режим активовано.", mainKeyboard(true))
	}

	me := func(c telebot.Context) error {
		chatID := senderID(c)
		name, points, err := query.Balance(ctx, chatID)
		if err != nil {
			if errors.Is(err, app.ErrNotLinked) {
				return c.Send(linkFirstReply)
			}
			baseLogger.WithError(err).WithField("sender_id", chatID).Error("Failed to load balance")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send(fmt.Sprintf("%s, ваші бали: %d ✨", name, points))
	}

	profile := func(c telebot.Context) error {
		chatID := senderID(c)
		student, err := query.Profile(ctx, chatID)
		if err != nil {
			if errors.Is(err, app.ErrNotLinked) {
				return c.Send(linkFirstReply)
			}
			baseLogger.WithError(err).WithField("sender_id", chatID).Error("Failed to load profile")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		var txt strings.Builder
		txt.WriteString(fmt.Sprintf("👤 %s\n", student.FullName))
		txt.WriteString(fmt.Sprintf("Клас: %s\n", student.Class))
		txt.WriteString(fmt.Sprintf("Вік: %d\n", student.Age))
		txt.WriteString(fmt.Sprintf("Рік навчання: %d\n", student.Year))
		txt.WriteString(fmt.Sprintf("Бали: %d\n", student.Points))
		txt.WriteString("Продовжуйте в тому ж дусі! 🎉")
		return c.Send(txt.String())
	}

	rules := func(c telebot.Context) error {
		return c.Send(rulesText)
	}

	schedule := func(c telebot.Context) error {
		return c.Send(scheduleText)
	}

	leaderboardAll := func(c telebot.Context) error {
		rows, err := query.Leaderboard(ctx, nil, app.DefaultLeaderboardLimit)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to build leaderboard")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send(app.FormatLeaderboard(rows, nil))
	}

	leaderboardClass := func(c telebot.Context) error {
		chatID := senderID(c)
		student, err := query.Profile(ctx, chatID)
		if err != nil {
			if errors.Is(err, app.ErrNotLinked) {
				return c.Send(linkFirstReply)
			}
			baseLogger.WithError(err).WithField("sender_id", chatID).Error("Failed to resolve class for leaderboard")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		class := student.Class
		rows, err := query.Leaderboard(ctx, &class, app.DefaultLeaderboardLimit)
		if err != nil {
			baseLogger.WithError(err).Error("Failed to build class leaderboard")
			return c.Send("Сталася помилка. Спробуйте пізніше.")
		}
		return c.Send(app.FormatLeaderboard(rows, &class))
	}

	help := func(c telebot.Context) error {
		return c.Send(helpText)
	}

	adminMenu := func(c telebot.Context) error {
		// The cheat-sheet itself is admin-gated silence, same as the
		// commands it lists.
		if !identity.IsAdmin(ctx, senderID(c)) {
			return nil
		}
		return c.Send(adminMenuText)
	}

	b.Handle("/start", start)
	b.Handle("/help", help)
	b.Handle("/link", link)
	b.Handle("/admin", admin)
	b.Handle("/me", me)
	b.Handle("/profile", profile)
	b.Handle("/rules", rules)
	b.Handle("/schedule", schedule)
	b.Handle("/leaderboard", leaderboardAll)
	b.Handle("/leaderboard_class", leaderboardClass)

	// Button labels arrive as plain text.
	b.Handle(telebot.OnText, func(c telebot.Context) error {
		switch strings.TrimSpace(c.Text()) {
		case btnMyPoints:
			return me(c)
		case btnMyProfile:
			return profile(c)
		case btnSchedule:
			return schedule(c)
		case btnRules:
			return rules(c)
		case btnLeadersClass:
			return leaderboardClass(c)
		case btnLeadersAll:
			return leaderboardAll(c)
		case btnAdminMenu:
			return adminMenu(c)
		}
		return nil
	})
}
