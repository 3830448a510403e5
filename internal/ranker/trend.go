package ranker

import (
	"context"
	"fmt"

	"newsrank/internal/models"
)

// InteractionCounter is the slice of the store the trend aggregation needs.
type InteractionCounter interface {
	GetInteractionCounts(ctx context.Context, action models.Action) (map[string]int64, error)
}

// TrendAggregator turns the cross-user like counts into a per-category
// popularity boost. It is recomputed fresh on every ranking request;
// the aggregate query is cheap at this scale.
type TrendAggregator struct {
	counter InteractionCounter
	weight  float64
}

func NewTrendAggregator(counter InteractionCounter, weight float64) *TrendAggregator {
	return &TrendAggregator{counter: counter, weight: weight}
}

// Boosts returns likeCount(category) * weight for every category with at
// least one like. Categories absent from the result boost 0.
func (t *TrendAggregator) Boosts(ctx context.Context) (map[string]float64, error) {
	counts, err := t.counter.GetInteractionCounts(ctx, models.ActionLike)
	if err != nil {
		return nil, fmt.Errorf("get interaction counts: %w", err)
	}

	boosts := make(map[string]float64, len(counts))
	for category, count := range counts {
		boosts[category] = float64(count) * t.weight
	}

	return boosts, nil
}
