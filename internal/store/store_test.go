package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/database"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()

	db, err := database.Open("sqlite://" + filepath.Join(t.TempDir(), "store.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := &testClock{now: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)}
	s := New(db,
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(func() { _ = s.Close() })

	return s, clock
}

func TestLatestReadingOnEmptyStore(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.LatestReading(context.Background()); !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
}

func TestInsertReadingClassifies(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		co2, co, dust float64
		want          models.Categories
	}{
		{0, 0, 0, models.Categories{CO2Category: "GOOD", COCategory: "GOOD", DustCategory: "GOOD", AirQualityStatus: "GOOD"}},
		{1200, 10, 60, models.Categories{CO2Category: "MODERATE", COCategory: "MODERATE", DustCategory: "UNHEALTHY", AirQualityStatus: "UNHEALTHY"}},
		{6000, 1, 5, models.Categories{CO2Category: "HAZARDOUS", COCategory: "GOOD", DustCategory: "GOOD", AirQualityStatus: "HAZARDOUS"}},
		{1000, 9, 35.5, models.Categories{CO2Category: "MODERATE", COCategory: "MODERATE", DustCategory: "MODERATE", AirQualityStatus: "MODERATE"}},
	}

	for _, tc := range cases {
		row, err := s.InsertReading(ctx, models.NewSensorReading(tc.co2, tc.co, tc.dust))
		if err != nil {
			t.Fatalf("insert %v/%v/%v: %v", tc.co2, tc.co, tc.dust, err)
		}
		if row.ID == 0 {
			t.Fatalf("expected an id to be assigned")
		}
		if models.Value(row.CO2) != tc.co2 || models.Value(row.CO) != tc.co || models.Value(row.Dust) != tc.dust {
			t.Fatalf("expected values echoed, got %v/%v/%v", models.Value(row.CO2), models.Value(row.CO), models.Value(row.Dust))
		}
		if row.Categories != tc.want {
			t.Fatalf("%v/%v/%v: expected %+v, got %+v", tc.co2, tc.co, tc.dust, tc.want, row.Categories)
		}
	}
}

func TestInsertReadingRejectsNull(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	reading := models.NewSensorReading(400, 0, 10)
	reading.CO = nil

	if _, err := s.InsertReading(ctx, reading); err == nil {
		t.Fatalf("expected a null co to be rejected")
	}
	if _, err := s.LatestReading(ctx); !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected no row to be stored, got %v", err)
	}
}

func TestLatestReadingIsNewest(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertReading(ctx, models.NewSensorReading(400, 1, 10)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	clock.Advance(time.Minute)
	second, err := s.InsertReading(ctx, models.NewSensorReading(800, 2, 20))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	latest, err := s.LatestReading(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != second.ID || models.Value(latest.CO2) != 800 {
		t.Fatalf("expected reading %d, got %+v", second.ID, latest)
	}
	if latest.AirQualityStatus != "GOOD" {
		t.Fatalf("expected the latest reading to be classified, got %+v", latest.Categories)
	}
}

func TestHistoricalReadingsWindow(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	old, err := s.InsertReading(ctx, models.NewSensorReading(400, 1, 10))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	clock.Advance(90 * time.Minute)
	middle, err := s.InsertReading(ctx, models.NewSensorReading(500, 1, 10))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	clock.Advance(20 * time.Minute)
	newest, err := s.InsertReading(ctx, models.NewSensorReading(600, 1, 10))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	clock.Advance(10 * time.Minute)

	rows, err := s.HistoricalReadings(ctx, 1)
	if err != nil {
		t.Fatalf("historical: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != newest.ID || rows[1].ID != middle.ID {
		t.Fatalf("expected the two newest readings newest first, got %+v", rows)
	}

	rows, err = s.HistoricalReadings(ctx, 24)
	if err != nil {
		t.Fatalf("historical: %v", err)
	}
	if len(rows) != 3 || rows[2].ID != old.ID {
		t.Fatalf("expected all three readings, got %d", len(rows))
	}
	for _, row := range rows {
		if row.CO2Category == "" || row.AirQualityStatus == "" {
			t.Fatalf("expected every row to be classified, got %+v", row)
		}
	}
}

func TestHistoricalReadingsEmptyWindow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertReading(ctx, models.NewSensorReading(400, 1, 10)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := s.HistoricalReadings(ctx, -5)
	if err != nil {
		t.Fatalf("historical: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected an empty non-nil slice, got %#v", rows)
	}

	rows, err = s.HistoricalReadings(ctx, int(^uint(0)>>1))
	if err != nil {
		t.Fatalf("historical with a huge window: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a huge window to cover everything, got %d", len(rows))
	}
}

func TestStatistics(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	statistics, err := s.Statistics(ctx, 24)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if statistics.TotalData != 0 || statistics.AvgCO2 != nil || statistics.MaxDust != nil || statistics.MinCO != nil {
		t.Fatalf("expected an empty summary, got %+v", statistics)
	}

	if _, err := s.InsertReading(ctx, models.NewSensorReading(9999, 99, 999)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	clock.Advance(3 * time.Hour)
	for _, values := range [][3]float64{{400, 1, 10}, {600, 3, 30}} {
		if _, err := s.InsertReading(ctx, models.NewSensorReading(values[0], values[1], values[2])); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	statistics, err = s.Statistics(ctx, 2)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if statistics.TotalData != 2 {
		t.Fatalf("expected 2 readings in the window, got %d", statistics.TotalData)
	}
	checks := map[string][2]float64{
		"avg_co2":  {models.Value(statistics.AvgCO2), 500},
		"max_co2":  {models.Value(statistics.MaxCO2), 600},
		"min_co2":  {models.Value(statistics.MinCO2), 400},
		"avg_co":   {models.Value(statistics.AvgCO), 2},
		"max_dust": {models.Value(statistics.MaxDust), 30},
		"min_dust": {models.Value(statistics.MinDust), 10},
	}
	for name, check := range checks {
		if check[0] != check[1] {
			t.Fatalf("expected %s = %v, got %v", name, check[1], check[0])
		}
	}
}

func TestControlLog(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LatestControl(ctx); !errors.Is(err, ErrNoControl) {
		t.Fatalf("expected ErrNoControl, got %v", err)
	}

	first, err := s.InsertControl(ctx, models.FanOn, models.ModeManual)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !first.Waktu.Equal(clock.Now()) {
		t.Fatalf("expected waktu %v, got %v", clock.Now(), first.Waktu)
	}

	clock.Advance(time.Second)
	if _, err := s.InsertControl(ctx, models.FanOff, models.ModeManual); err != nil {
		t.Fatalf("insert: %v", err)
	}

	latest, err := s.LatestControl(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Fan != models.FanOff || latest.Mode != models.ModeManual {
		t.Fatalf("expected OFF/MANUAL, got %s/%s", latest.Fan, latest.Mode)
	}
}

func TestInsertControlRejectsUnknownState(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.InsertControl(context.Background(), models.FanState("HALF"), models.ModeAuto); err == nil {
		t.Fatalf("expected the kontrol check constraint to reject HALF")
	}
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, *gorm.DB, models.SensorReading) (models.Categories, error) {
	return models.Categories{}, errors.New("classifier offline")
}

func TestInsertReadingRollsBackOnClassifierFailure(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	failing := New(s.DB(), WithClassifier(failingClassifier{}))
	if _, err := failing.InsertReading(ctx, models.NewSensorReading(400, 1, 10)); err == nil {
		t.Fatalf("expected the classifier error to surface")
	}

	if _, err := s.LatestReading(ctx); !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected the insert to be rolled back, got %v", err)
	}
}
