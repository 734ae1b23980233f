package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/adapters"
	"tenderwatch/internal/features/tenders/migrations"
	"tenderwatch/internal/features/tenders/models"
	"tenderwatch/internal/features/tenders/services"
)

func newTestHandlers(t *testing.T, fetch adapters.FetchFunc) (*Handlers, *services.SchedulerService, *core.Database) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := core.NewLogger()
	coreDB := core.NewDatabase(db, logger)
	if err := migrations.NewManager(coreDB, logger).Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	sources := []models.Source{
		{ID: "etenders", Name: "National eTenders Portal", Adapter: "stub", Priority: 1, IntervalMinutes: 60, Enabled: true},
	}

	records := services.NewRecordService(coreDB, logger)
	cache := services.NewCacheService(time.Minute, logger)
	reader := services.NewReaderService(records, cache, logger)

	registry := adapters.NewRegistry()
	if err := registry.Register("stub", fetch); err != nil {
		t.Fatalf("Failed to register stub adapter: %v", err)
	}

	scheduler := services.NewSchedulerService(sources, registry, records, cache,
		services.NewLogNotifier(logger), logger, &models.SchedulerConfig{
			TickInterval:   time.Hour,
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  time.Minute,
			CacheTTL:       time.Minute,
		})

	return NewHandlers(logger, sources, scheduler, reader), scheduler, coreDB
}

func newTestRouter(h *Handlers) *chi.Mux {
	mux := chi.NewRouter()
	mux.Get("/tenders/sources", h.ListSources)
	mux.Get("/tenders/sources/{id}", h.ReadSource)
	mux.Post("/tenders/sources/{id}/refresh", h.RefreshSource)
	mux.Post("/tenders/refresh", h.RefreshAll)
	mux.Get("/tenders/status", h.Status)
	return mux
}

func waitForSettled(t *testing.T, scheduler *services.SchedulerService, sourceID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status, err := scheduler.StatusOf(sourceID); err == nil && status.Status != models.JobRunning {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s to settle", sourceID)
}

func stubFetch(ctx context.Context, source *models.Source) ([]models.RawRecord, error) {
	return []models.RawRecord{
		{Name: "Road resurfacing N1", PostedDate: "2025-03-01"},
		{Name: "School canteen catering", PostedDate: "2025-03-02"},
	}, nil
}

func TestReadSourceUnknownReturns404(t *testing.T) {
	h, _, _ := newTestHandlers(t, stubFetch)
	mux := newTestRouter(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/tenders/sources/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}

	var envelope struct {
		Success bool           `json:"success"`
		Error   *core.AppError `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode error envelope: %v", err)
	}
	if envelope.Success {
		t.Error("Expected success=false in the error envelope")
	}
	if envelope.Error == nil || envelope.Error.Code != core.ErrCodeNotFound {
		t.Errorf("Expected %s, got %+v", core.ErrCodeNotFound, envelope.Error)
	}
}

func TestReadSourceDegradedReturns503(t *testing.T) {
	h, _, db := newTestHandlers(t, stubFetch)
	mux := newTestRouter(h)

	// Empty cache and a dead store
	db.DB.Close()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/tenders/sources/etenders", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 for degraded read, got %d", rec.Code)
	}

	var data models.SourceData
	if err := json.NewDecoder(rec.Body).Decode(&data); err != nil {
		t.Fatalf("Failed to decode degraded response: %v", err)
	}
	if data.Success {
		t.Error("Expected success=false in the degraded response")
	}
	if data.Error == nil || data.Error.Code != core.ErrCodeReadPath {
		t.Errorf("Expected %s, got %+v", core.ErrCodeReadPath, data.Error)
	}
}

func TestRefreshSourceBusyReturns409(t *testing.T) {
	fetchStarted := make(chan struct{})
	release := make(chan struct{})

	h, scheduler, _ := newTestHandlers(t, func(ctx context.Context, source *models.Source) ([]models.RawRecord, error) {
		fetchStarted <- struct{}{}
		<-release
		return stubFetch(ctx, source)
	})
	mux := newTestRouter(h)

	if !scheduler.RunOne(context.Background(), "etenders") {
		t.Fatal("Expected the first run to start")
	}
	<-fetchStarted

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/tenders/sources/etenders/refresh", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 while the source is being fetched, got %d", rec.Code)
	}

	var envelope struct {
		Success bool           `json:"success"`
		Error   *core.AppError `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode error envelope: %v", err)
	}
	if envelope.Error == nil || envelope.Error.Code != core.ErrCodeConflict {
		t.Errorf("Expected %s, got %+v", core.ErrCodeConflict, envelope.Error)
	}

	close(release)
	waitForSettled(t, scheduler, "etenders")
}

func TestRefreshSourceAcceptedReturns202(t *testing.T) {
	h, scheduler, _ := newTestHandlers(t, stubFetch)
	mux := newTestRouter(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/tenders/sources/etenders/refresh", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 for an accepted refresh, got %d", rec.Code)
	}

	waitForSettled(t, scheduler, "etenders")

	// The run started behind the 202 completes and fills the read path
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/tenders/sources/etenders", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 after the refresh, got %d", rec.Code)
	}
	var data models.SourceData
	if err := json.NewDecoder(rec.Body).Decode(&data); err != nil {
		t.Fatalf("Failed to decode read response: %v", err)
	}
	if !data.Success || len(data.Records) != 2 {
		t.Errorf("Expected 2 records from the refreshed source, got success=%v records=%d",
			data.Success, len(data.Records))
	}
}

func TestRefreshAllAndStatus(t *testing.T) {
	h, scheduler, _ := newTestHandlers(t, stubFetch)
	mux := newTestRouter(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/tenders/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from refresh-all, got %d", rec.Code)
	}
	var refresh struct {
		Success bool `json:"success"`
		Started int  `json:"started"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&refresh); err != nil {
		t.Fatalf("Failed to decode refresh response: %v", err)
	}
	if refresh.Started != 1 {
		t.Errorf("Expected 1 run started, got %d", refresh.Started)
	}

	waitForSettled(t, scheduler, "etenders")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/tenders/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from status, got %d", rec.Code)
	}
	var status struct {
		Success bool               `json:"success"`
		Jobs    []models.JobStatus `json:"jobs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode status response: %v", err)
	}
	if len(status.Jobs) != 1 {
		t.Fatalf("Expected 1 job snapshot, got %d", len(status.Jobs))
	}
	if status.Jobs[0].SourceID != "etenders" || status.Jobs[0].SuccessCount != 1 {
		t.Errorf("Unexpected job snapshot: %+v", status.Jobs[0])
	}
}
