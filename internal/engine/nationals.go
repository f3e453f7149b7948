package engine

import (
	"context"
	"math"

	"github.com/okian/olyrank/internal/domain/model"
	"github.com/okian/olyrank/internal/domain/ranking"
	"github.com/okian/olyrank/pkg/logger"
	"github.com/okian/olyrank/pkg/metrics"
)

// NationalsLoss scores how well pre-tournament overall ratings predicted the
// final overall places: sum of (n - actual + 1)^2 * |predicted - actual|.
// ratings align with overall.Entries.
func NationalsLoss(overall ranking.Ranking, ratings []float64) float64 {
	n := len(overall.Entries)
	if n == 0 || len(ratings) != n {
		return 0
	}
	predicted := make([]ranking.Entry, n)
	for i := range overall.Entries {
		predicted[i] = ranking.Entry{Number: i, Score: -ratings[i]}
	}
	ranking.AssignPlaces(predicted)

	loss := 0.0
	for _, p := range predicted {
		actual := overall.Entries[p.Number].Place
		weight := float64(n - actual + 1)
		loss += weight * weight * math.Abs(float64(p.Place-actual))
	}
	return loss
}

func (e *Engine) recordNationalsLoss(ctx context.Context, rec *model.TournamentRecord, overall ranking.Ranking) {
	ratings := make([]float64, len(overall.Entries))
	for i, en := range overall.Entries {
		ratings[i], _ = e.state.Store.Peek(e.key(en.Team, rec.Season, model.Overall))
	}
	loss := NationalsLoss(overall, ratings)
	e.nationalsLoss += loss
	metrics.UpdateNationalsLoss(e.division, e.nationalsLoss)
	e.logger.Info(ctx, "nationals prediction loss",
		logger.String("division", e.division),
		logger.String("tournament", rec.Name),
		logger.Int("season", rec.Season),
		logger.Float64("loss", loss),
		logger.Float64("total", e.nationalsLoss))
}
