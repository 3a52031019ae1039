package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vespertan/privileges/grants"
)

// Recorder turns grants engine events into audit records.
type Recorder struct {
	store Store
	log   *zap.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger attaches a logger; save failures are logged instead of lost
// silently.
func WithLogger(log *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		r.log = log
	}
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Listener returns the listener to subscribe on an engine:
//
//	rec := audit.NewRecorder(store)
//	engine.Subscribe(rec.Listener())
//
// Events are recorded synchronously, in the order the engine fires them.
func (r *Recorder) Listener() grants.Listener {
	return func(ev grants.Event) {
		rec := &Record{
			ID:        uuid.NewString(),
			Type:      string(ev.Kind),
			CreatedAt: time.Now().UTC(),
		}
		if ev.Privilege != "" {
			rec.Privilege = string(ev.Privilege)
		}
		if ev.User != "" {
			rec.User = string(ev.User)
		}
		if ev.Group != "" {
			rec.Group = string(ev.Group)
		}
		if ev.Relation.Kind != 0 {
			rec.Relation = ev.Relation.String()
		}
		if ev.Grant.Principal.Kind != 0 {
			rec.Grant = ev.Grant.String()
			rec.Privilege = string(ev.Grant.Privilege)
		}
		if err := r.store.Save(context.Background(), rec); err != nil && r.log != nil {
			r.log.Error("audit: save record",
				zap.String("type", rec.Type),
				zap.Error(err),
			)
		}
	}
}
