package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// VisitInput describes one visit to be recorded.
type VisitInput struct {
	VisitorKey string
	Client     entity.ClientMeta
	Geo        *entity.Geo
	Referrer   string
}

type counterIncrementer interface {
	IncrementCounters(ctx context.Context, id int64, delta entity.CounterDelta, at time.Time) error
}

// VisitRecorder appends visit events and keeps the link counters in step with them.
type VisitRecorder struct {
	visits   visitRepository
	counters counterIncrementer
	now      func() time.Time
}

// NewVisitRecorder creates a new VisitRecorder.
func NewVisitRecorder(visits visitRepository, counters counterIncrementer) *VisitRecorder {
	return &VisitRecorder{
		visits:   visits,
		counters: counters,
		now:      utcNow,
	}
}

// Record appends exactly one event for the link and increments its counters.
//
// Uniqueness is decided by storage with an insert-if-absent of the (link, visitor key)
// pair, so concurrent first visits from one fingerprint yield a single unique event.
// The counter update follows the append; a failure between the two leaves the event
// in place without its counter increment.
func (r *VisitRecorder) Record(ctx context.Context, linkID int64, in VisitInput) (*entity.VisitEvent, error) {
	const op = "usecase.VisitRecorder.Record"

	event := &entity.VisitEvent{
		LinkID:     linkID,
		VisitorKey: in.VisitorKey,
		Client:     in.Client,
		Geo:        in.Geo,
		Referrer:   in.Referrer,
		VisitedAt:  r.now(),
	}

	saved, err := r.visits.Append(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to append visit: %w", op, err)
	}

	delta := entity.CounterDelta{Click: true, UniqueVisitor: saved.IsUnique}
	if err := r.counters.IncrementCounters(ctx, linkID, delta, saved.VisitedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}
