package control

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	commands []models.ControlCommand
	readErr  error
	// reads, when set, is signalled after every LatestControl and each
	// read then waits on release.
	reads   chan struct{}
	release chan struct{}
}

func (f *fakeStore) LatestControl(ctx context.Context) (*models.ControlCommand, error) {
	f.mu.Lock()
	var last *models.ControlCommand
	if len(f.commands) > 0 {
		command := f.commands[len(f.commands)-1]
		last = &command
	}
	err := f.readErr
	f.mu.Unlock()

	if f.reads != nil {
		f.reads <- struct{}{}
		<-f.release
	}

	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, store.ErrNoControl
	}
	return last, nil
}

func (f *fakeStore) InsertControl(ctx context.Context, fan models.FanState, mode models.Mode) (*models.ControlCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	command := models.ControlCommand{
		ID:    uint(len(f.commands) + 1),
		Fan:   fan,
		Mode:  mode,
		Waktu: time.Now().UTC(),
	}
	f.commands = append(f.commands, command)

	return &command, nil
}

func fanPtr(fan models.FanState) *models.FanState { return &fan }
func modePtr(mode models.Mode) *models.Mode       { return &mode }

func TestResolve(t *testing.T) {
	last := &models.ControlCommand{Fan: models.FanOn, Mode: models.ModeManual}

	cases := []struct {
		name     string
		req      Request
		last     *models.ControlCommand
		wantFan  models.FanState
		wantMode models.Mode
	}{
		{"defaults", Request{Fan: fanPtr(models.FanOn)}, nil, models.FanOn, models.ModeAuto},
		{"mode only on empty log", Request{Mode: modePtr(models.ModeManual)}, nil, models.FanOff, models.ModeManual},
		{"carry mode", Request{Fan: fanPtr(models.FanOff)}, last, models.FanOff, models.ModeManual},
		{"carry fan", Request{Mode: modePtr(models.ModeAuto)}, last, models.FanOn, models.ModeAuto},
		{"both", Request{Fan: fanPtr(models.FanOff), Mode: modePtr(models.ModeAuto)}, last, models.FanOff, models.ModeAuto},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fan, mode := Resolve(tc.req, tc.last)
			if fan != tc.wantFan || mode != tc.wantMode {
				t.Fatalf("expected %s/%s, got %s/%s", tc.wantFan, tc.wantMode, fan, mode)
			}
		})
	}
}

func TestStatusDefaultsWhenLogIsEmpty(t *testing.T) {
	now := time.Date(2025, time.June, 1, 8, 30, 0, 0, time.UTC)
	service := NewService(&fakeStore{})
	service.now = func() time.Time { return now }

	status, err := service.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Fan != models.FanOff || status.Mode != models.ModeAuto || !status.Waktu.Equal(now) {
		t.Fatalf("expected OFF/AUTO at %v, got %+v", now, status)
	}
}

func TestStatusReturnsNewest(t *testing.T) {
	fake := &fakeStore{}
	service := NewService(fake)
	ctx := context.Background()

	if _, err := service.Apply(ctx, Request{Fan: fanPtr(models.FanOn)}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := service.Apply(ctx, Request{Mode: modePtr(models.ModeManual)}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	status, err := service.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Fan != models.FanOn || status.Mode != models.ModeManual {
		t.Fatalf("expected ON/MANUAL, got %s/%s", status.Fan, status.Mode)
	}
}

func TestStatusPropagatesStoreErrors(t *testing.T) {
	offline := errors.New("connection refused")
	service := NewService(&fakeStore{readErr: offline})

	if _, err := service.Status(context.Background()); !errors.Is(err, offline) {
		t.Fatalf("expected the store error, got %v", err)
	}
	if _, err := service.Apply(context.Background(), Request{Fan: fanPtr(models.FanOn)}); !errors.Is(err, offline) {
		t.Fatalf("expected the store error from apply, got %v", err)
	}
}

func TestApplyRequiresAField(t *testing.T) {
	fake := &fakeStore{}
	service := NewService(fake)

	if _, err := service.Apply(context.Background(), Request{}); !errors.Is(err, ErrNothingToApply) {
		t.Fatalf("expected ErrNothingToApply, got %v", err)
	}
	if len(fake.commands) != 0 {
		t.Fatalf("expected nothing to be written, got %d commands", len(fake.commands))
	}
}

// Both writers read the same prior row before either writes. Each resolves
// against that stale row, so the log ends with two well-formed commands and
// the newest one drops the other writer's change.
func TestConcurrentApplyResolvesAgainstSamePriorRow(t *testing.T) {
	fake := &fakeStore{
		commands: []models.ControlCommand{{ID: 1, Fan: models.FanOff, Mode: models.ModeAuto}},
		reads:    make(chan struct{}),
		release:  make(chan struct{}),
	}
	service := NewService(fake)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, req := range []Request{{Fan: fanPtr(models.FanOn)}, {Mode: modePtr(models.ModeManual)}} {
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			_, err := service.Apply(ctx, req)
			errs <- err
		}(req)
	}

	<-fake.reads
	<-fake.reads
	close(fake.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	if len(fake.commands) != 3 {
		t.Fatalf("expected two new commands, got %d total", len(fake.commands)-1)
	}
	for _, command := range fake.commands[1:] {
		if command.Fan != models.FanOn && command.Fan != models.FanOff {
			t.Fatalf("unexpected fan %q", command.Fan)
		}
		if command.Mode != models.ModeAuto && command.Mode != models.ModeManual {
			t.Fatalf("unexpected mode %q", command.Mode)
		}
		if command.Fan == models.FanOn && command.Mode == models.ModeManual {
			t.Fatalf("expected each writer to see only the prior row, got %+v", command)
		}
	}
}
