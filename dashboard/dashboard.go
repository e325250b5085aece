// Package dashboard builds the zero-filled daily intake/burned series shown
// on the dashboard chart.
package dashboard

import (
	"context"
	"fmt"

	"github.com/writewithwrabit/calorietrack/calendar"
	"github.com/writewithwrabit/calorietrack/logging"
	"github.com/writewithwrabit/calorietrack/models"
)

// Totals is the one store query the aggregator needs.
type Totals interface {
	DailyTotals(ctx context.Context, kind models.Kind, userID string, rng calendar.Range) (map[string]int, error)
}

type Aggregator struct {
	store Totals
	log   logging.Logger
}

func New(store Totals, logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Aggregator{store: store, log: logger}
}

// Aggregate returns one point per calendar day of rng for both kinds. Days
// without records are 0. Burned calories are the summed exertion entries.
// Any store error aborts the whole series.
func (a *Aggregator) Aggregate(ctx context.Context, rng calendar.Range, userID string) (*models.DailySeries, error) {
	labels := rng.Labels()

	intake, err := a.bucket(ctx, models.Intake, userID, rng, labels)
	if err != nil {
		return nil, err
	}
	burned, err := a.bucket(ctx, models.Exertion, userID, rng, labels)
	if err != nil {
		return nil, err
	}

	series := &models.DailySeries{
		Labels: labels,
		Intake: make([]int, len(labels)),
		Burned: make([]int, len(labels)),
	}
	for i, label := range labels {
		series.Intake[i] = intake[label]
		series.Burned[i] = burned[label]
	}
	return series, nil
}

func (a *Aggregator) bucket(ctx context.Context, kind models.Kind, userID string, rng calendar.Range, labels []string) (map[string]int, error) {
	sums := make(map[string]int, len(labels))
	for _, label := range labels {
		sums[label] = 0
	}

	totals, err := a.store.DailyTotals(ctx, kind, userID, rng)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", kind, err)
	}

	for label, total := range totals {
		if _, ok := sums[label]; !ok {
			a.log.Debug("dropping total outside range", "kind", kind, "day", label, "calories", total)
			continue
		}
		sums[label] = total
	}
	return sums, nil
}
