package scheduler

import (
	"context"
	"time"

	"school_points_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DigestScheduler periodically broadcasts the current leaderboard to every
// linked chat identity. The cron spec comes from configuration; an empty
// spec disables the job entirely.
type DigestScheduler struct {
	cronEngine  *cron.Cron
	query       *app.QueryService
	broadcast   *app.BroadcastService
	logger      *logrus.Entry
	cronSpec    string
	classFilter string // empty means the global leaderboard
	digestLimit int
}

func NewDigestScheduler(
	query *app.QueryService,
	broadcast *app.BroadcastService,
	logger *logrus.Entry,
	cronSpec string,
	classFilter string,
) *DigestScheduler {
	return &DigestScheduler{
		cronEngine:  cron.New(cron.WithLocation(time.Local)),
		query:       query,
		broadcast:   broadcast,
		logger:      logger.WithField("component", "digest_scheduler"),
		cronSpec:    cronSpec,
		classFilter: classFilter,
		digestLimit: app.DefaultLeaderboardLimit,
	}
}

func (s *DigestScheduler) Start() error {
	if s.cronSpec == "" {
		s.logger.Info("Digest cron spec is empty, scheduler disabled")
		return nil
	}

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.runDigest(ctx)
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Digest scheduler started")
	return nil
}

func (s *DigestScheduler) runDigest(ctx context.Context) {
	var classFilter *string
	if s.classFilter != "" {
		classFilter = &s.classFilter
	}

	rows, err := s.query.Leaderboard(ctx, classFilter, s.digestLimit)
	if err != nil {
		s.logger.WithError(err).Error("Could not build leaderboard for digest")
		return
	}
	if len(rows) == 0 {
		s.logger.Info("No students on leaderboard, skipping digest")
		return
	}

	// Digests go out silently so a scheduled summary never wakes anyone up.
	sent, failed, err := s.broadcast.BroadcastAll(ctx, app.FormatLeaderboard(rows, classFilter), true)
	if err != nil {
		s.logger.WithError(err).Error("Digest broadcast failed")
		return
	}
	s.logger.WithFields(logrus.Fields{"sent": sent, "failed": failed}).Info("Leaderboard digest delivered")
}

func (s *DigestScheduler) Stop() {
	if s.cronSpec == "" {
		return
	}
	s.logger.Info("Stopping digest scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Digest scheduler stopped")
}
