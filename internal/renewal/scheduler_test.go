package renewal

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"license-backoffice/internal/database"
	"license-backoffice/internal/license"
)

type fakeStore struct {
	licenses []database.License
	clients  map[string]*database.Client

	transactions []database.Transaction
	updates      []string

	listErr     error
	createTxErr map[string]error // license ID -> error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:     make(map[string]*database.Client),
		createTxErr: make(map[string]error),
	}
}

func (f *fakeStore) ListLicenses(ctx context.Context) ([]database.License, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]database.License, len(f.licenses))
	copy(out, f.licenses)
	return out, nil
}

func (f *fakeStore) GetClientByID(ctx context.Context, id string) (*database.Client, error) {
	return f.clients[id], nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, tx *database.Transaction) error {
	if err := f.createTxErr[tx.LicenseID]; err != nil {
		return err
	}
	f.transactions = append(f.transactions, *tx)
	return nil
}

func (f *fakeStore) UpdateLicenseRenewal(ctx context.Context, id string, expiryDate *time.Time, notes, status string) error {
	for i := range f.licenses {
		if f.licenses[i].ID == id {
			f.licenses[i].ExpiryDate = expiryDate
			f.licenses[i].Notes = notes
			f.licenses[i].Status = status
			f.updates = append(f.updates, id)
			return nil
		}
	}
	return fmt.Errorf("license not found: %s", id)
}

func (f *fakeStore) licenseByID(id string) *database.License {
	for i := range f.licenses {
		if f.licenses[i].ID == id {
			return &f.licenses[i]
		}
	}
	return nil
}

func (f *fakeStore) addClient(id, companyID string) {
	f.clients[id] = &database.Client{ID: id, CompanyID: companyID, Name: "Client " + id}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 10, 30, 0, 0, time.UTC)
	}
}

func newTestScheduler(store Store, clock func() time.Time) *Scheduler {
	return NewScheduler(store, nil, nil, Config{
		Timezone: "UTC",
		Clock:    clock,
	})
}

func TestRunOnceSelectsOnlyDueLicenses(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")

	base := database.License{
		LicenseType:    string(license.TypeAbbonamentoMensile),
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 18),
		Price:          "50.00",
		Discount:       "0.00",
	}

	due := base
	due.ID = "due"
	due.Key = "MEN-AAAA-BBBB-CCCC"

	disabled := base
	disabled.ID = "disabled"
	disabled.RenewalEnabled = false

	suspended := base
	suspended.ID = "suspended"
	suspended.Status = string(license.StatusSospesa)

	expired := base
	expired.ID = "expired-status"
	expired.Status = string(license.StatusScaduta)

	noExpiry := base
	noExpiry.ID = "no-expiry"
	noExpiry.ExpiryDate = nil

	future := base
	future.ID = "future"
	future.ExpiryDate = datePtr(2025, time.August, 19)

	store.licenses = []database.License{due, disabled, suspended, expired, noExpiry, future}

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if summary.Candidates != 1 {
		t.Errorf("expected 1 candidate, got %d", summary.Candidates)
	}
	if summary.Succeeded != 1 {
		t.Errorf("expected 1 success, got %d", summary.Succeeded)
	}
	if len(store.updates) != 1 || store.updates[0] != "due" {
		t.Errorf("expected only license 'due' updated, got %v", store.updates)
	}

	for _, id := range []string{"disabled", "suspended", "expired-status", "no-expiry", "future"} {
		lic := store.licenseByID(id)
		if lic.Notes != "" {
			t.Errorf("license %s should not have been touched", id)
		}
	}
}

func TestPermanentAndTrialNeverRenew(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")

	permanent := database.License{
		ID:             "perm",
		LicenseType:    string(license.TypePermanente),
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 1),
	}
	trial := database.License{
		ID:             "trial",
		LicenseType:    string(license.TypeTrial),
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 1),
	}
	store.licenses = []database.License{permanent, trial}

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if summary.Candidates != 0 {
		t.Errorf("expected 0 candidates, got %d", summary.Candidates)
	}
	if len(store.transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(store.transactions))
	}
	if len(store.updates) != 0 {
		t.Errorf("expected no updates, got %v", store.updates)
	}
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")

	mk := func(id string) database.License {
		return database.License{
			ID:             id,
			Key:            "MEN-" + strings.ToUpper(id),
			LicenseType:    string(license.TypeAbbonamentoMensile),
			Status:         string(license.StatusAttiva),
			ClientID:       "c1",
			RenewalEnabled: true,
			ExpiryDate:     datePtr(2025, time.August, 18),
			Price:          "10.00",
		}
	}
	store.licenses = []database.License{mk("a"), mk("b"), mk("c")}

	// license b cannot bill
	store.createTxErr["b"] = fmt.Errorf("numeric overflow")

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if summary.Candidates != 3 {
		t.Errorf("expected 3 candidates, got %d", summary.Candidates)
	}
	if summary.Succeeded != 2 {
		t.Errorf("expected 2 successes, got %d", summary.Succeeded)
	}
	if summary.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", summary.Failed)
	}
	if len(summary.FailedIDs) != 1 || summary.FailedIDs[0] != "b" {
		t.Errorf("expected failed IDs [b], got %v", summary.FailedIDs)
	}

	// a and c were still renewed
	for _, id := range []string{"a", "c"} {
		lic := store.licenseByID(id)
		if lic.ExpiryDate == nil || !lic.ExpiryDate.After(time.Date(2025, time.August, 18, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("license %s should have a new expiry date", id)
		}
	}
	if lic := store.licenseByID("b"); lic.ExpiryDate.Day() != 18 {
		t.Errorf("failed license b should keep its old expiry, got %v", lic.ExpiryDate)
	}
}

func TestRunOnceMissingClientFailsItem(t *testing.T) {
	store := newFakeStore()

	store.licenses = []database.License{{
		ID:             "orphan",
		LicenseType:    string(license.TypeAbbonamentoMensile),
		Status:         string(license.StatusAttiva),
		ClientID:       "ghost",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 18),
		Price:          "10.00",
	}}

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if summary.Failed != 1 || summary.Succeeded != 0 {
		t.Errorf("expected 1 failure and 0 successes, got %+v", summary)
	}
	if len(store.transactions) != 0 {
		t.Errorf("no transaction should exist for a license without a client")
	}
}

func TestRunOnceIsIdempotentAcrossRuns(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")
	store.licenses = []database.License{{
		ID:             "l1",
		LicenseType:    string(license.TypeAbbonamentoMensile),
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 18),
		Price:          "10.00",
	}}

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))

	first, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.Succeeded != 1 {
		t.Fatalf("expected first run to renew, got %+v", first)
	}

	second, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Candidates != 0 {
		t.Errorf("second run on the same day should find no candidates, got %d", second.Candidates)
	}
	if len(store.transactions) != 1 {
		t.Errorf("expected exactly 1 transaction after double run, got %d", len(store.transactions))
	}
}

func TestOverdueRenewalAnchorsToToday(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")
	store.licenses = []database.License{{
		ID:             "late",
		LicenseType:    string(license.TypeAbbonamentoMensile),
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 8), // ten days overdue
		Price:          "10.00",
	}}

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	lic := store.licenseByID("late")
	want := time.Date(2025, time.September, 17, 0, 0, 0, 0, time.UTC)
	if lic.ExpiryDate == nil || !lic.ExpiryDate.Equal(want) {
		t.Errorf("expiry should be anchored to today: got %v, want %v", lic.ExpiryDate, want)
	}
}

func TestExpiryLandsOnMidnightRegardlessOfClock(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")
	store.licenses = []database.License{{
		ID:             "l1",
		LicenseType:    string(license.TypeAbbonamentoMensile),
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 18),
		Price:          "10.00",
	}}

	// A clock late in the evening must not leak its time of day into the
	// persisted expiry date.
	clock := func() time.Time {
		return time.Date(2025, time.August, 18, 23, 45, 12, 0, time.UTC)
	}

	s := newTestScheduler(store, clock)
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	lic := store.licenseByID("l1")
	want := time.Date(2025, time.September, 17, 0, 0, 0, 0, time.UTC)
	if lic.ExpiryDate == nil || !lic.ExpiryDate.Equal(want) {
		t.Errorf("expiry = %v, want %v", lic.ExpiryDate, want)
	}
}

func TestCancelledContextStopsSelection(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")

	mk := func(id string) database.License {
		return database.License{
			ID:             id,
			LicenseType:    string(license.TypeAbbonamentoMensile),
			Status:         string(license.StatusAttiva),
			ClientID:       "c1",
			RenewalEnabled: true,
			ExpiryDate:     datePtr(2025, time.August, 18),
			Price:          "10.00",
		}
	}
	store.licenses = []database.License{mk("a"), mk("b")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	summary, err := s.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if summary.Candidates != 0 {
		t.Errorf("expected no candidates after cancellation, got %d", summary.Candidates)
	}
	if len(store.transactions) != 0 {
		t.Errorf("expected no transactions after cancellation, got %d", len(store.transactions))
	}
	if len(store.updates) != 0 {
		t.Errorf("expected no updates after cancellation, got %v", store.updates)
	}
}

func TestRenewalOutcome(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")
	store.licenses = []database.License{{
		ID:             "l1",
		Key:            "MEN-AAAA-BBBB-CCCC",
		LicenseType:    string(license.TypeAbbonamentoMensile),
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 18),
		Price:          "100.00",
		Discount:       "10.00",
		Notes:          "Attivazione iniziale",
	}}

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	summary, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("expected 1 success, got %+v", summary)
	}

	t.Run("transaction", func(t *testing.T) {
		if len(store.transactions) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(store.transactions))
		}
		tx := store.transactions[0]
		if tx.Type != string(license.TransactionRinnovo) {
			t.Errorf("type = %q, want %q", tx.Type, string(license.TransactionRinnovo))
		}
		if tx.Status != string(license.TransactionInAttesa) {
			t.Errorf("status = %q, want %q", tx.Status, string(license.TransactionInAttesa))
		}
		if tx.Amount != "100.00" || tx.Discount != "10.00" || tx.FinalAmount != "90.00" {
			t.Errorf("amounts = %s/%s/%s, want 100.00/10.00/90.00", tx.Amount, tx.Discount, tx.FinalAmount)
		}
		if tx.CompanyID != "co1" {
			t.Errorf("company_id = %q, want co1", tx.CompanyID)
		}
		if tx.ClientID != "c1" || tx.LicenseID != "l1" {
			t.Errorf("transaction references wrong rows: %+v", tx)
		}
	})

	t.Run("license", func(t *testing.T) {
		lic := store.licenseByID("l1")
		want := time.Date(2025, time.September, 17, 0, 0, 0, 0, time.UTC)
		if lic.ExpiryDate == nil || !lic.ExpiryDate.Equal(want) {
			t.Errorf("expiry = %v, want %v", lic.ExpiryDate, want)
		}
		if lic.Status != string(license.StatusAttiva) {
			t.Errorf("status = %q, want %q", lic.Status, string(license.StatusAttiva))
		}
		if !strings.HasPrefix(lic.Notes, "Attivazione iniziale\n") {
			t.Errorf("existing notes should be preserved: %q", lic.Notes)
		}
		if !strings.Contains(lic.Notes, "Rinnovo automatico effettuato il 18/08/2025") {
			t.Errorf("notes missing renewal line: %q", lic.Notes)
		}
	})
}

func TestDiscountNeverProducesNegativeAmount(t *testing.T) {
	store := newFakeStore()
	store.addClient("c1", "co1")
	store.licenses = []database.License{{
		ID:             "l1",
		LicenseType:    string(license.TypeAnnuale), // legacy alias still renews
		Status:         string(license.StatusAttiva),
		ClientID:       "c1",
		RenewalEnabled: true,
		ExpiryDate:     datePtr(2025, time.August, 18),
		Price:          "20.00",
		Discount:       "35.00",
	}}

	s := newTestScheduler(store, fixedClock(2025, time.August, 18))
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if len(store.transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(store.transactions))
	}
	if got := store.transactions[0].FinalAmount; got != "0.00" {
		t.Errorf("final amount = %q, want 0.00", got)
	}
}

func TestRunOnceRejectsOverlappingRun(t *testing.T) {
	store := newFakeStore()
	lock := database.NewRunLock(nil)

	if err := lock.Acquire(context.Background(), "other-run"); err != nil {
		t.Fatalf("setup acquire failed: %v", err)
	}

	s := NewScheduler(store, lock, nil, Config{Timezone: "UTC", Clock: fixedClock(2025, time.August, 18)})
	_, err := s.RunOnce(context.Background())
	if err != database.ErrRunInProgress {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}

	lock.Release(context.Background(), "other-run")
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Errorf("run after release should succeed, got %v", err)
	}
}

func TestNextRunTime(t *testing.T) {
	s := newTestScheduler(newFakeStore(), nil)

	t.Run("before midnight rolls to next day", func(t *testing.T) {
		now := time.Date(2025, time.August, 18, 23, 59, 0, 0, time.UTC)
		next := s.nextRunTime(now)
		want := time.Date(2025, time.August, 19, 0, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("exactly at trigger rolls forward", func(t *testing.T) {
		now := time.Date(2025, time.August, 18, 0, 0, 0, 0, time.UTC)
		next := s.nextRunTime(now)
		want := time.Date(2025, time.August, 19, 0, 0, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})

	t.Run("custom trigger time", func(t *testing.T) {
		s := NewScheduler(newFakeStore(), nil, nil, Config{Timezone: "UTC", RunHour: 0, RunMinute: 5})
		now := time.Date(2025, time.August, 18, 0, 1, 0, 0, time.UTC)
		next := s.nextRunTime(now)
		want := time.Date(2025, time.August, 18, 0, 5, 0, 0, time.UTC)
		if !next.Equal(want) {
			t.Errorf("next = %v, want %v", next, want)
		}
	})
}

func TestStartStopIdempotent(t *testing.T) {
	s := newTestScheduler(newFakeStore(), nil)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start should be a no-op, got %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}
}
