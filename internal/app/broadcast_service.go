package app

import (
	"context"
	"sort"
	"strconv"

	"school_points_bot/internal/domain/ledger"
	"school_points_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// BroadcastService fans one message out to every linked chat identity.
// Recipients are the tg_links keys, not deduplicated by student: if two
// chat identities link to one student, both receive the message.
type BroadcastService struct {
	store  ledger.Store
	client telegram.Client
	logger *logrus.Entry
}

func NewBroadcastService(store ledger.Store, client telegram.Client, logger *logrus.Entry) *BroadcastService {
	return &BroadcastService{store: store, client: client, logger: logger.WithField("service", "broadcast")}
}

// BroadcastAll delivers text to every linked recipient. A failed send is
// counted and the fan-out continues; there is no retry. The per-recipient
// timeout lives in the transport client's HTTP timeout.
func (s *BroadcastService) BroadcastAll(ctx context.Context, text string, silent bool) (sent int, failed int, err error) {
	st, err := s.store.Load(ctx)
	if err != nil {
		return 0, 0, err
	}

	recipients := make([]string, 0, len(st.TGLinks))
	for chatID := range st.TGLinks {
		recipients = append(recipients, chatID)
	}
	sort.Strings(recipients)

	opts := &telebot.SendOptions{DisableNotification: silent}
	for _, chatIDStr := range recipients {
		chatID, convErr := strconv.ParseInt(chatIDStr, 10, 64)
		if convErr != nil {
			s.logger.WithField("chat_id", chatIDStr).Warn("Skipping non-numeric chat id in tg_links")
			failed++
			continue
		}
		if sendErr := s.client.SendMessage(chatID, text, opts); sendErr != nil {
			s.logger.WithError(sendErr).WithField("chat_id", chatIDStr).Debug("Broadcast delivery failed for recipient")
			failed++
			continue
		}
		sent++
	}

	s.logger.WithFields(logrus.Fields{"sent": sent, "failed": failed}).Info("Broadcast finished")
	return sent, failed, nil
}
