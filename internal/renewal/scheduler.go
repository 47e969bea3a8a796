// Package renewal implements the automatic license renewal scheduler.
//
// Once a day, at local midnight in the configured timezone, the scheduler
// scans all licenses, selects the ones whose subscription expired, bills a
// renewal transaction for each and advances the expiry date. Failures on one
// license never stop the rest of the batch.
package renewal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"license-backoffice/internal/database"
	"license-backoffice/internal/events"
	"license-backoffice/internal/license"
)

// Config holds scheduler configuration
type Config struct {
	// Timezone is the IANA zone whose midnight triggers the daily run.
	Timezone string

	// RunHour and RunMinute shift the daily trigger away from midnight
	// when needed (for example 00:05 to dodge backup windows).
	RunHour   int
	RunMinute int

	// Clock overrides time.Now, used by tests to pin "today".
	Clock func() time.Time

	// Logger overrides the default logger.
	Logger *zerolog.Logger
}

// Summary reports the outcome of one renewal run
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Candidates int       `json:"candidates"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	FailedIDs  []string  `json:"failed_ids,omitempty"`
}

// Scheduler runs the daily renewal batch
type Scheduler struct {
	store Store
	lock  *database.RunLock
	bus   *events.EventBus

	loc       *time.Location
	runHour   int
	runMinute int
	clock     func() time.Time
	log       zerolog.Logger

	mu          sync.Mutex
	running     bool
	stopChan    chan struct{}
	wg          sync.WaitGroup
	lastRun     time.Time
	nextRun     time.Time
	lastSummary *Summary
}

// NewScheduler creates a renewal scheduler. An invalid or empty timezone
// falls back to UTC.
func NewScheduler(store Store, lock *database.RunLock, bus *events.EventBus, cfg Config) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		loc = time.UTC
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	var log zerolog.Logger
	if cfg.Logger != nil {
		log = *cfg.Logger
	} else {
		log = zerolog.New(os.Stdout).With().Timestamp().Str("component", "renewal").Logger()
	}

	return &Scheduler{
		store:     store,
		lock:      lock,
		bus:       bus,
		loc:       loc,
		runHour:   cfg.RunHour,
		runMinute: cfg.RunMinute,
		clock:     clock,
		log:       log,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the daily loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.log.Info().
		Str("timezone", s.loc.String()).
		Int("run_hour", s.runHour).
		Int("run_minute", s.runMinute).
		Msg("starting renewal scheduler")

	s.wg.Add(1)
	go s.runLoop()

	return nil
}

// Stop stops the daily loop and waits for an in-flight run to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info().Msg("stopping renewal scheduler")
	close(s.stopChan)
	s.wg.Wait()

	return nil
}

// IsRunning returns whether the scheduler loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns the scheduler status for the admin console
func (s *Scheduler) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"timezone": s.loc.String(),
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun
	}
	if !s.nextRun.IsZero() {
		status["next_run"] = s.nextRun
	}
	if s.lastSummary != nil {
		status["last_summary"] = s.lastSummary
	}
	return status
}

func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	for {
		next := s.nextRunTime(s.clock())
		s.mu.Lock()
		s.nextRun = next
		s.mu.Unlock()

		timer := time.NewTimer(next.Sub(s.clock()))
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), 25*time.Minute)
			if _, err := s.RunOnce(ctx); err != nil && err != database.ErrRunInProgress {
				s.log.Error().Err(err).Msg("renewal run failed")
			}
			cancel()
		}
	}
}

// nextRunTime returns the next daily trigger strictly after now
func (s *Scheduler) nextRunTime(now time.Time) time.Time {
	now = now.In(s.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), s.runHour, s.runMinute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce executes a single renewal batch. It returns database.ErrRunInProgress
// when another run already holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()

	if s.lock != nil {
		if err := s.lock.Acquire(ctx, runID); err != nil {
			return nil, err
		}
		defer s.lock.Release(ctx, runID)
	}

	now := s.clock().In(s.loc)
	// Anchor everything in the batch to the calendar day, not the wall-clock
	// instant, so persisted expiry dates land on midnight.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	summary := &Summary{
		RunID:     runID,
		StartedAt: now,
	}

	log := s.log.With().Str("run_id", runID).Logger()
	log.Info().Time("run_date", now).Msg("renewal run started")
	if s.bus != nil {
		s.bus.PublishRenewalRunStarted(runID)
	}

	licenses, err := s.store.ListLicenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}

	for i := range licenses {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("renewal run interrupted, remaining licenses retried on the next run")
			break
		}

		lic := &licenses[i]
		if !s.isRenewalDue(lic, today) {
			continue
		}
		summary.Candidates++

		if err := s.renewLicense(ctx, lic, today, log); err != nil {
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, lic.ID)
			log.Error().Err(err).
				Str("license_id", lic.ID).
				Str("license_key", lic.Key).
				Msg("license renewal failed")
			continue
		}
		summary.Succeeded++
	}

	summary.FinishedAt = s.clock().In(s.loc)

	s.mu.Lock()
	s.lastRun = summary.StartedAt
	s.lastSummary = summary
	s.mu.Unlock()

	log.Info().
		Int("candidates", summary.Candidates).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("renewal run finished")
	if s.bus != nil {
		s.bus.PublishRenewalRunFinished(runID, summary.Candidates, summary.Succeeded, summary.Failed)
	}

	return summary, nil
}

// isRenewalDue reports whether a license qualifies for automatic renewal
// today. Only active subscriptions with renewal enabled and an expiry date on
// or before today qualify; permanent and trial licenses never renew.
func (s *Scheduler) isRenewalDue(lic *database.License, now time.Time) bool {
	if !lic.RenewalEnabled {
		return false
	}
	if lic.Status != string(license.StatusAttiva) {
		return false
	}
	if !license.IsSubscription(lic.LicenseType) {
		return false
	}
	if lic.ExpiryDate == nil {
		return false
	}

	expiry := lic.ExpiryDate.In(s.loc)
	expiryDay := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return !expiryDay.After(today)
}

// renewLicense processes a single renewal candidate: bill the renewal
// transaction, then advance the expiry date anchored to today. today is
// truncated to midnight in the scheduler's timezone.
func (s *Scheduler) renewLicense(ctx context.Context, lic *database.License, today time.Time, log zerolog.Logger) error {
	client, err := s.store.GetClientByID(ctx, lic.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client %s: %w", lic.ClientID, err)
	}
	if client == nil {
		return fmt.Errorf("client %s not found", lic.ClientID)
	}

	amount := license.ParseAmount(lic.Price)
	discount := license.ParseAmount(lic.Discount)
	final := amount - discount
	if final < 0 {
		final = 0
	}

	tx := &database.Transaction{
		LicenseID:   lic.ID,
		ClientID:    client.ID,
		CompanyID:   client.CompanyID,
		Type:        string(license.TransactionRinnovo),
		Amount:      license.FormatAmount(amount),
		Discount:    license.FormatAmount(discount),
		FinalAmount: license.FormatAmount(final),
		Status:      string(license.TransactionInAttesa),
		Notes:       fmt.Sprintf("Rinnovo automatico licenza %s", lic.Key),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to create renewal transaction: %w", err)
	}

	// The new expiry is anchored to today, not to the old expiry date, so an
	// overdue license is never billed for the gap it spent expired.
	newExpiry := license.ComputeExpiry(lic.LicenseType, lic.TrialDays, today)
	if newExpiry == nil {
		return fmt.Errorf("no expiry computable for license type %q", lic.LicenseType)
	}

	notes := lic.Notes
	if notes != "" {
		notes += "\n"
	}
	notes += fmt.Sprintf("Rinnovo automatico effettuato il %s", today.Format("02/01/2006"))

	if err := s.store.UpdateLicenseRenewal(ctx, lic.ID, newExpiry, notes, string(license.StatusAttiva)); err != nil {
		return fmt.Errorf("failed to persist renewal: %w", err)
	}

	log.Info().
		Str("license_id", lic.ID).
		Str("license_key", lic.Key).
		Str("license_type", lic.LicenseType).
		Str("final_amount", tx.FinalAmount).
		Time("new_expiry", *newExpiry).
		Msg("license renewed")
	if s.bus != nil {
		s.bus.PublishLicenseRenewed(lic.ID, lic.Key, newExpiry, tx.FinalAmount)
	}

	return nil
}
