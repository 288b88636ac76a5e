package telegram

import "gopkg.in/telebot.v3"

// Reply-keyboard button labels. OnText routing matches on these exact
// strings, so they double as part of the command surface.
const (
	btnMyPoints     = "📊 Мої бали"
	btnMyProfile    = "👤 Мій профіль"
	btnSchedule     = "🗓 Розклад"
	btnRules        = "📋 Правила"
	btnLeadersClass = "🏆 Лідери (клас)"
	btnLeadersAll   = "🌍 Лідери (всі)"
	btnAdminMenu    = "🛠 Адмін меню"
)

const rulesText = "📋 Правила балів:\n" +
	"• Запросив друга, який записався — +10\n" +
	"• Успішність/відвідування — +20\n" +
	"• Активність на занятті — +10\n" +
	"• Порушення — −10/−15\n" +
	"(детальна таблиця у класного керівника)"

const scheduleText = "🗓 Розклад на місяць:\n" +
	"Пн 18:00 — Англійська\nВт 18:00 — Історія\nЧт 18:00 — Українська\nСб 11:00 — Розмовний клуб\n" +
	"(за потреби оновлюйте цей текст у коді)"

const adminMenuText = "Адмін‑команди:\n" +
	"• /set <id> <points>\n" +
	"• /give <id> <delta>\n" +
	"• /add_student id|full_name|pin|class|age|year|points\n" +
	"• /edit_student <id> <field> <value>\n" +
	"• /del_student <id>\n" +
	"• /broadcast <текст>"

const helpText = "/start — головне меню\n" +
	"/link <PIN> — привʼязка\n" +
	"/me — мої бали\n" +
	"/profile — мій профіль\n" +
	"/rules — правила\n" +
	"/schedule — розклад\n" +
	"/leaderboard — лідери (всі)\n" +
	"/leaderboard_class — лідери по моєму класу\n" +
	"/admin <пароль> — стати адміністратором"

// mainKeyboard builds the student reply keyboard; admins get one extra row.
func mainKeyboard(isAdmin bool) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}
	rows := []telebot.Row{
		menu.Row(menu.Text(btnMyPoints), menu.Text(btnMyProfile)),
		menu.Row(menu.Text(btnSchedule), menu.Text(btnRules)),
		menu.Row(menu.Text(btnLeadersClass), menu.Text(btnLeadersAll)),
	}
	if isAdmin {
		rows = append(rows, menu.Row(menu.Text(btnAdminMenu)))
	}
	menu.Reply(rows...)
	return menu
}
