package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WeeklyHoursSnapshotter публикует занятые часы туторов за неделю.
type WeeklyHoursSnapshotter interface {
	SnapshotWeeklyHours(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	snapshotter WeeklyHoursSnapshotter
	interval    time.Duration
	logger      *zap.Logger
	stopChan    chan struct{}
	stopOnce    sync.Once
	done        chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(snapshotter WeeklyHoursSnapshotter, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		snapshotter: snapshotter,
		interval:    interval,
		logger:      logger,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runSnapshotTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

func (s *Scheduler) runSnapshotTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.snapshot(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.snapshot(ctx)
		case <-s.stopChan:
			s.logger.Info("Quota snapshot task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Quota snapshot task cancelled")
			return
		}
	}
}

func (s *Scheduler) snapshot(ctx context.Context) {
	n, err := s.snapshotter.SnapshotWeeklyHours(ctx)
	if err != nil {
		s.logger.Error("Failed to snapshot weekly hours", zap.Error(err))
		return
	}
	s.logger.Debug("Weekly hours snapshot taken", zap.Int("tutors", n))
}
