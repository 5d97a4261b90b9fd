package provider

import (
	"context"
	"errors"

	"github.com/mpapenbr/raceanalysis-service/pkg/model"
)

var ErrSessionNotFound = errors.New("session not found")

// Provider delivers the raw telemetry of a session.
// If drivers is not empty only the traces of these drivers need to be included.
// Lap records are always delivered for all drivers.
type Provider interface {
	Load(ctx context.Context, key model.SessionKey, drivers []string) (*model.SessionData, error)
}

// Func adapts a function to a Provider.
type Func func(ctx context.Context, key model.SessionKey, drivers []string) (*model.SessionData, error)

func (f Func) Load(ctx context.Context, key model.SessionKey, drivers []string) (*model.SessionData, error) {
	return f(ctx, key, drivers)
}
