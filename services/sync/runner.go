package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"puretrack/errs"
	"puretrack/logger"
	settingModel "puretrack/models/setting"
	importerService "puretrack/services/importer"
	"puretrack/services/onedrive"
	settingsService "puretrack/services/settings"
	importerTypes "puretrack/types/importer"

	"gorm.io/gorm"
)

const defaultTimeout = 5 * time.Minute

// ErrAlreadyRunning is returned when a trigger arrives while a sync is in
// flight. The running pass will pick up the file's latest content anyway.
var ErrAlreadyRunning = errs.Validationf("a sync is already running")

// Outcome is what a finished sync pass left behind.
type Outcome struct {
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Trigger    string                `json:"trigger"`
	Result     *importerTypes.Result `json:"result,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// Runner pulls the configured spreadsheet and reconciles it into the
// shipment table. At most one pass runs at a time.
type Runner struct {
	db     *gorm.DB
	apiLog *logger.AsyncLogger

	mu      sync.Mutex
	running bool
	last    *Outcome
}

func NewRunner(db *gorm.DB, apiLog *logger.AsyncLogger) *Runner {
	return &Runner{db: db, apiLog: apiLog}
}

// Trigger starts a sync pass in the background. Returns ErrAlreadyRunning
// when one is in flight.
func (r *Runner) Trigger(trigger string) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()
		r.runOnce(trigger)
	}()
	return nil
}

// Running reports whether a pass is in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Last returns the most recent outcome, falling back to the persisted one
// after a restart. Nil when no sync ever ran.
func (r *Runner) Last() *Outcome {
	r.mu.Lock()
	if r.last != nil {
		out := *r.last
		r.mu.Unlock()
		return &out
	}
	r.mu.Unlock()

	stored, err := settingsService.Get(r.db, settingModel.KeyLastSyncResult)
	if err != nil || stored == "" {
		return nil
	}
	var out Outcome
	if json.Unmarshal([]byte(stored), &out) != nil {
		return nil
	}
	return &out
}

func (r *Runner) runOnce(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout())
	defer cancel()

	out := &Outcome{StartedAt: time.Now().UTC(), Trigger: trigger}
	result, err := r.pull(ctx)
	out.FinishedAt = time.Now().UTC()
	out.Result = result
	if err != nil {
		out.Error = errs.Message(err)
		logger.Error(fmt.Sprintf("sync (%s) failed", trigger), err)
	} else {
		logger.Success(fmt.Sprintf("sync (%s): %d created, %d updated, %d skipped, %d errors",
			trigger, result.Created, result.Updated, result.Skipped, len(result.Errors)))
	}

	r.mu.Lock()
	r.last = out
	r.mu.Unlock()
	r.persist(out)
}

func (r *Runner) pull(ctx context.Context) (*importerTypes.Result, error) {
	cfg, err := settingsService.LoadSync(r.db)
	if err != nil {
		return nil, err
	}

	client, err := onedrive.New(r.db, r.apiLog)
	if err != nil {
		return nil, err
	}

	content, err := client.DownloadFile(ctx, cfg.FileID)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, errs.Externalf("sync timed out downloading the spreadsheet")
	}

	rows, _, err := importerService.Parse(content)
	if err != nil {
		return nil, err
	}
	return importerService.Execute(r.db, rows, importerTypes.ModeUpdateOrCreate)
}

func (r *Runner) persist(out *Outcome) {
	if err := settingsService.Set(r.db, settingModel.KeyLastSyncRun, out.FinishedAt.Format(time.RFC3339), false); err != nil {
		logger.Warning("could not record sync timestamp: " + err.Error())
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := settingsService.Set(r.db, settingModel.KeyLastSyncResult, string(encoded), false); err != nil {
		logger.Warning("could not record sync result: " + err.Error())
	}
}

func timeout() time.Duration {
	if raw := os.Getenv("SYNC_TIMEOUT_SECONDS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultTimeout
}
