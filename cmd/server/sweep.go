package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shiftsync/core/internal/database"
	"github.com/shiftsync/core/internal/hub"
)

// sweeper periodically checks persistence health and re-arms any period
// that tripped into read-only mode once writes start succeeding again
// (spec.md §4.2, §7).
type sweeper struct {
	manager *hub.Manager
	db      *database.DB
	log     *zerolog.Logger
	cron    *cron.Cron
}

func newSweeper(manager *hub.Manager, db *database.DB, log *zerolog.Logger) *sweeper {
	return &sweeper{manager: manager, db: db, log: log}
}

// Start arms the periodic sweep on a fixed six-field cron expression that
// runs it every 30 seconds; the schedule is not read from configuration.
func (s *sweeper) Start() error {
	s.cron = cron.New(cron.WithParser(cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)))
	_, err := s.cron.AddFunc("*/30 * * * * *", s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

func (s *sweeper) sweep() {
	readOnly := s.manager.ReadOnlyPeriods()
	if len(readOnly) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.db.Health(ctx); err != nil {
		s.log.Warn().Err(err).Int("read_only_periods", len(readOnly)).Msg("持久层仍不可达，保持只读")
		return
	}

	s.log.Info().Int("read_only_periods", len(readOnly)).Msg("持久层已恢复，周期退出只读模式")
	s.manager.RearmAll()
}
