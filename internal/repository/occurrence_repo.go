package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/court-booking/internal/domain"
)

type OccurrenceRepo struct {
	db *gorm.DB
}

func NewOccurrenceRepo(db *gorm.DB) *OccurrenceRepo {
	return &OccurrenceRepo{db: db}
}

func activeStatusStrings() []string {
	out := make([]string, len(domain.ActiveOccurrenceStatuses))
	for i, s := range domain.ActiveOccurrenceStatuses {
		out[i] = string(s)
	}
	return out
}

// AdmitWithNoOverlap is the conflict guard: it locks any occurrence row on
// the same court whose [start_at, end_at) interval overlaps the candidate
// and whose status still blocks the slot, then inserts only if none exists.
// Two concurrent bookers on the same slot serialize on those row locks, so
// exactly one insert wins; the loser gets a ConflictError naming the row it
// collided with.
func (r *OccurrenceRepo) AdmitWithNoOverlap(ctx context.Context, o *domain.BookingCourtOccurrence) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return admitLocked(tx, o)
	})
}

// AdmitBatch inserts every occurrence or none: the first conflict rolls the
// whole transaction back (all-or-nothing mode).
func (r *OccurrenceRepo) AdmitBatch(ctx context.Context, occs []*domain.BookingCourtOccurrence) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range occs {
			if err := admitLocked(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
}

func admitLocked(tx *gorm.DB, o *domain.BookingCourtOccurrence) error {
	var existing domain.BookingCourtOccurrence
	err := tx.Model(&domain.BookingCourtOccurrence{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("court_id = ? AND status IN ?", o.CourtID, activeStatusStrings()).
		Where("start_at < ? AND end_at > ?", o.EndAt, o.StartAt).
		Take(&existing).Error
	if err == nil {
		return &domain.ConflictError{CourtID: o.CourtID, OccurrenceID: existing.ID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return tx.Create(o).Error
}

func (r *OccurrenceRepo) ByID(ctx context.Context, id string) (*domain.BookingCourtOccurrence, error) {
	var o domain.BookingCourtOccurrence
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OccurrenceRepo) ByBooking(ctx context.Context, bookingID string) ([]domain.BookingCourtOccurrence, error) {
	var out []domain.BookingCourtOccurrence
	if err := r.db.WithContext(ctx).
		Where("booking_court_id = ?", bookingID).
		Order("start_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByCourtDay returns occurrences overlapping the given day.
func (r *OccurrenceRepo) ListByCourtDay(ctx context.Context, courtID string, day time.Time) ([]domain.BookingCourtOccurrence, error) {
	from := domain.DateOnly(day)
	to := from.Add(24 * time.Hour)
	qb := r.db.WithContext(ctx).Model(&domain.BookingCourtOccurrence{}).
		Where("start_at < ? AND end_at > ?", to, from)
	if courtID != "" {
		qb = qb.Where("court_id = ?", courtID)
	}
	var out []domain.BookingCourtOccurrence
	if err := qb.Order("start_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionGuarded moves id from → to with a status compare-and-set.
// Returns false when the row was not in `from` anymore, which callers treat
// as losing the race rather than as corruption.
func (r *OccurrenceRepo) TransitionGuarded(ctx context.Context, id string, from, to domain.OccurrenceStatus) (bool, error) {
	if !domain.CanTransitionOccurrence(from, to) {
		return false, domain.ErrInvalidStateTransition
	}
	res := r.db.WithContext(ctx).Model(&domain.BookingCourtOccurrence{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// cancelNotStarted cancels a booking's occurrences that have not started
// yet and are still cancellable, on the caller's transaction. The
// booking-cancellation cascade runs through here.
func cancelNotStarted(tx *gorm.DB, bookingID string, now time.Time) error {
	return tx.Model(&domain.BookingCourtOccurrence{}).
		Where("booking_court_id = ? AND start_at > ?", bookingID, now).
		Where("status IN ?", []string{string(domain.OccurrencePendingPayment), string(domain.OccurrenceActive)}).
		Update("status", domain.OccurrenceCancelled).Error
}
