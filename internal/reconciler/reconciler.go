// Package reconciler keeps treatment-room charges in line with elapsed
// stay time.  A background sweep recomputes each active stay's expected
// charge from its start date and ratchets the stored value upward, so a
// missed or repeated sweep can never over- or under-bill.
package reconciler

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/repository"
)

// Reconciler periodically sweeps active registrations and raises their
// expected accrued charge to (days elapsed) x (room daily rate).
type Reconciler struct {
	regs     *repository.RegistrationRepo
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// New returns a Reconciler sweeping at the given interval.
func New(regs *repository.RegistrationRepo, interval time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{regs: regs, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps once immediately, then on every tick until ctx is
// cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.Sweep(ctx)
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("billing sweep stopped")
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep recomputes expected charges for all active stays.  Failures on
// one stay are logged and do not stop the rest of the sweep.  Stays
// whose room was deleted have no rate to bill against; they are skipped
// and logged for manual follow-up.
func (r *Reconciler) Sweep(ctx context.Context) {
	stays, err := r.regs.ListActiveStays(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("billing sweep: list active stays failed")
		return
	}

	now := r.now()
	updated := 0
	for _, s := range stays {
		if s.PricePerDayCents == nil {
			r.logger.Warn().
				Uint64("registration_id", s.RegistrationID).
				Uint64("patient_id", s.PatientID).
				Msg("billing sweep: stay has no room rate, skipping")
			continue
		}
		expected := ExpectedCharge(s.AssignedAt, now, *s.PricePerDayCents)
		changed, err := r.regs.RatchetExpected(ctx, s.RegistrationID, expected)
		if err != nil {
			r.logger.Error().Err(err).
				Uint64("registration_id", s.RegistrationID).
				Msg("billing sweep: update failed")
			continue
		}
		if changed {
			updated++
		}
	}
	r.logger.Info().Int("stays", len(stays)).Int("updated", updated).Msg("billing sweep done")
}

// ExpectedCharge is the total owed for a stay running from assignedAt
// until now at the given daily rate.  The admission day counts as day
// one, so a stay is always charged at least one day.
func ExpectedCharge(assignedAt, now time.Time, pricePerDayCents int64) int64 {
	days := DaysElapsed(assignedAt, now) + 1
	return int64(days) * pricePerDayCents
}

// DaysElapsed counts whole calendar days between the two instants in
// local time.  Comparing local midnights means the count ticks over at
// midnight regardless of admission hour; rounding absorbs the odd-length
// days around DST transitions.
func DaysElapsed(from, to time.Time) int {
	a := midnight(from.Local())
	b := midnight(to.Local())
	if b.Before(a) {
		return 0
	}
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
