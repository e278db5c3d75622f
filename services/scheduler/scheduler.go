package scheduler

import (
	"context"
	"fmt"
	"time"

	"puretrack/logger"
	eventModel "puretrack/models/event"
	shipmentModel "puretrack/models/shipment"
	"puretrack/services/onedrive"

	"gorm.io/gorm"
)

const (
	slaCheckInterval     = 1 * time.Hour
	renewalCheckInterval = 6 * time.Hour

	// renewalMargin is how close to expiry the subscription gets renewed.
	// Must exceed renewalCheckInterval so no window is missed.
	renewalMargin = 12 * time.Hour
)

// Scheduler runs the periodic background jobs: the SLA watcher and the
// change-subscription renewal.
type Scheduler struct {
	db     *gorm.DB
	apiLog *logger.AsyncLogger
	stop   chan struct{}
}

func New(db *gorm.DB, apiLog *logger.AsyncLogger) *Scheduler {
	return &Scheduler{db: db, apiLog: apiLog, stop: make(chan struct{})}
}

// Start launches the job loops. Call once at boot.
func (s *Scheduler) Start() {
	go s.loop(slaCheckInterval, s.checkSLA)
	go s.loop(renewalCheckInterval, s.renewSubscription)
	logger.Info("background jobs started")
}

// Stop terminates the job loops.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) loop(interval time.Duration, job func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	job()
	for {
		select {
		case <-ticker.C:
			job()
		case <-s.stop:
			return
		}
	}
}

// checkSLA flags shipments whose planned arrival has passed without a final
// delivery event.
func (s *Scheduler) checkSLA() {
	var late []shipmentModel.Shipment
	err := s.db.
		Where("planned_eta IS NOT NULL AND planned_eta < ? AND status <> ?",
			time.Now().UTC(), eventModel.TypeFinalDelivery).
		Find(&late).Error
	if err != nil {
		logger.Error("SLA check failed", err)
		return
	}
	if len(late) == 0 {
		return
	}

	logger.Warning(fmt.Sprintf("SLA check: %d shipment(s) past planned ETA", len(late)))
	for _, sh := range late {
		overdue := time.Since(*sh.PlannedETA).Hours() / 24
		logger.Warning(fmt.Sprintf("  %s is %.0f day(s) overdue (status %s)", sh.Reference, overdue, sh.Status))
	}
}

// renewSubscription extends the OneDrive change subscription before it
// lapses. No-op when none is registered.
func (s *Scheduler) renewSubscription() {
	info, err := onedrive.StoredSubscription(s.db)
	if err != nil {
		logger.Error("subscription renewal", err)
		return
	}
	if info == nil {
		return
	}
	if !info.Expiration.IsZero() && time.Until(info.Expiration) > renewalMargin {
		return
	}

	client, err := onedrive.New(s.db, s.apiLog)
	if err != nil {
		logger.Error("subscription renewal", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	renewed, err := client.RenewSubscription(ctx, info.ID)
	if err != nil {
		logger.Error("subscription renewal failed", err)
		return
	}
	logger.Success("OneDrive subscription renewed until " + renewed.Expiration.Format(time.RFC3339))
}
