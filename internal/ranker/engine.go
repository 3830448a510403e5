package ranker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"newsrank/internal/models"
)

// Store is the persistence surface the engine needs. Implemented by
// *database.Database.
type Store interface {
	InteractionCounter
	GetScores(ctx context.Context, userID int64) (map[string]float64, error)
	UpsertScore(ctx context.Context, userID int64, category string, score float64) error
	AppendInteraction(ctx context.Context, userID int64, category string, action models.Action) error
	AppendReward(ctx context.Context, userID int64, reward int64) error
}

// Session is the per-browser-session recency window. Implemented by
// *session.Memory.
type Session interface {
	Push(category string)
	Recent() []string
}

type Config struct {
	Alpha         float64
	Epsilon       float64
	TrendWeight   float64
	RecencyWeight float64
	Rewards       map[models.Action]float64
}

// Explanation breaks a category's total down into its three signals.
type Explanation struct {
	Category string  `json:"category"`
	Base     float64 `json:"base"`
	Recent   float64 `json:"recent"`
	Global   float64 `json:"global"`
	Total    float64 `json:"total"`
}

// Ranking is a total order over the fixed category set: exactly the five
// categories, no duplicates, no omissions.
type Ranking struct {
	Categories   []string      `json:"categories"`
	Explored     bool          `json:"explored"`
	Explanations []Explanation `json:"explanations"`
}

// Engine blends the per-user learned scores, the session recency window,
// and the global trend boost into a category order, and folds feedback
// back into the scores.
type Engine struct {
	store Store
	trend *TrendAggregator
	locks *keyedMutex
	rng   Rand
	cfg   Config
	log   *slog.Logger
}

func NewEngine(store Store, cfg Config, log *slog.Logger) *Engine {
	if cfg.Rewards == nil {
		cfg.Rewards = DefaultRewards()
	}

	return &Engine{
		store: store,
		trend: NewTrendAggregator(store, cfg.TrendWeight),
		locks: newKeyedMutex(),
		rng:   systemRand{},
		cfg:   cfg,
		log:   log,
	}
}

// WithRand replaces the exploration draw source. Tests use it to force the
// explore or exploit branch.
func (e *Engine) WithRand(rng Rand) *Engine {
	e.rng = rng
	return e
}

// Rank produces the category order for one (user, session) pair. With
// probability epsilon the order is a uniform random permutation; otherwise
// categories sort by total descending, ties broken by name ascending. The
// draw is independent per request and deliberately unseeded.
func (e *Engine) Rank(ctx context.Context, userID int64, sess Session) (*Ranking, error) {
	scores, err := e.store.GetScores(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get scores: %w", err)
	}

	boosts, err := e.trend.Boosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute trend boosts: %w", err)
	}

	recentCounts := make(map[string]int)
	if sess != nil {
		for _, category := range sess.Recent() {
			recentCounts[category]++
		}
	}

	totals := make(map[string]float64, len(Categories))
	explanations := make([]Explanation, 0, len(Categories))
	for _, category := range Categories {
		exp := Explanation{
			Category: category,
			Base:     scores[category],
			Recent:   float64(recentCounts[category]) * e.cfg.RecencyWeight,
			Global:   boosts[category],
		}
		exp.Total = exp.Base + exp.Recent + exp.Global

		totals[category] = exp.Total
		explanations = append(explanations, exp)
	}

	ranked := slices.Clone(Categories)
	explored := e.rng.Float64() < e.cfg.Epsilon

	if explored {
		e.rng.Shuffle(len(ranked), func(i, j int) {
			ranked[i], ranked[j] = ranked[j], ranked[i]
		})
	} else {
		slices.SortFunc(ranked, func(a, b string) int {
			if c := cmp.Compare(totals[b], totals[a]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
	}

	e.log.DebugContext(ctx, "Categories are ranked",
		"userID", userID,
		"explored", explored,
		"order", ranked)

	return &Ranking{
		Categories:   ranked,
		Explored:     explored,
		Explanations: explanations,
	}, nil
}

// RecordFeedback folds a like or dislike into the user's score for the
// category, appends the interaction and reward log rows, and pushes the
// category into the session window. Validation happens before any mutation.
func (e *Engine) RecordFeedback(
	ctx context.Context,
	userID int64,
	sess Session,
	category string,
	action models.Action,
) error {
	if action != models.ActionLike && action != models.ActionDislike {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	reward, err := e.applyReward(ctx, userID, category, action)
	if err != nil {
		return err
	}

	if err := e.store.AppendInteraction(ctx, userID, category, action); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}

	if err := e.store.AppendReward(ctx, userID, int64(reward)); err != nil {
		return fmt.Errorf("append reward: %w", err)
	}

	if sess != nil {
		sess.Push(category)
	}

	return nil
}

// RecordSave applies the save reward through the same update rule. Saves
// log a reward entry but no like/dislike interaction row, and they do not
// touch the session window.
func (e *Engine) RecordSave(ctx context.Context, userID int64, category string) error {
	reward, err := e.applyReward(ctx, userID, category, models.ActionSave)
	if err != nil {
		return err
	}

	if err := e.store.AppendReward(ctx, userID, int64(reward)); err != nil {
		return fmt.Errorf("append reward: %w", err)
	}

	return nil
}

func (e *Engine) applyReward(
	ctx context.Context,
	userID int64,
	category string,
	action models.Action,
) (float64, error) {
	if !IsKnownCategory(category) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	reward, ok := e.cfg.Rewards[action]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	unlock := e.locks.lock(userID, category)
	defer unlock()

	scores, err := e.store.GetScores(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get scores: %w", err)
	}

	old := scores[category]
	score := updatedScore(old, reward, e.cfg.Alpha)

	if err := e.store.UpsertScore(ctx, userID, category, score); err != nil {
		return 0, fmt.Errorf("upsert score: %w", err)
	}

	e.log.DebugContext(ctx, "Score is updated",
		"userID", userID,
		"category", category,
		"action", string(action),
		"oldScore", old,
		"newScore", score)

	return reward, nil
}
