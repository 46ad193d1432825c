package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/models"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/store"
)

var ErrNothingToApply = errors.New("fan or mode must be provided")

// Store is the part of the data layer the control log needs.
type Store interface {
	LatestControl(ctx context.Context) (*models.ControlCommand, error)
	InsertControl(ctx context.Context, fan models.FanState, mode models.Mode) (*models.ControlCommand, error)
}

// Request is a partial desired state. Nil fields keep their current value.
type Request struct {
	Fan  *models.FanState
	Mode *models.Mode
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// Status returns the newest command, or the default state stamped with the
// current time when the log is empty.
func (s *Service) Status(ctx context.Context) (*models.ControlCommand, error) {
	last, err := s.store.LatestControl(ctx)
	if errors.Is(err, store.ErrNoControl) {
		return &models.ControlCommand{
			Fan:   models.DefaultFan,
			Mode:  models.DefaultMode,
			Waktu: s.now().UTC(),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return last, nil
}

// Apply resolves req against the newest command and appends the result.
//
// The read and the write are separate statements. Two concurrent calls may
// resolve against the same prior command, so a field one of them meant to
// carry forward can be overwritten by the other's stale view. Callers that
// need linearizable updates must serialize Apply themselves.
func (s *Service) Apply(ctx context.Context, req Request) (*models.ControlCommand, error) {
	if req.Fan == nil && req.Mode == nil {
		return nil, ErrNothingToApply
	}

	last, err := s.store.LatestControl(ctx)
	if err != nil && !errors.Is(err, store.ErrNoControl) {
		return nil, fmt.Errorf("failed to read current control state: %w", err)
	}

	fan, mode := Resolve(req, last)

	return s.store.InsertControl(ctx, fan, mode)
}

// Resolve applies the carry-forward rule: requested value, else the last
// logged value, else the default.
func Resolve(req Request, last *models.ControlCommand) (models.FanState, models.Mode) {
	fan, mode := models.DefaultFan, models.DefaultMode
	if last != nil {
		fan, mode = last.Fan, last.Mode
	}

	if req.Fan != nil {
		fan = *req.Fan
	}
	if req.Mode != nil {
		mode = *req.Mode
	}

	return fan, mode
}
