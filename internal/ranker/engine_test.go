package ranker

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"
	"testing"

	"newsrank/internal/models"
)

type fakeStore struct {
	mu           sync.Mutex
	scores       map[int64]map[string]float64
	interactions []models.Interaction
	rewards      []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{scores: make(map[int64]map[string]float64)}
}

func (f *fakeStore) GetScores(_ context.Context, userID int64) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	scores := make(map[string]float64, len(f.scores[userID]))
	for category, score := range f.scores[userID] {
		scores[category] = score
	}

	return scores, nil
}

func (f *fakeStore) UpsertScore(
	_ context.Context,
	userID int64,
	category string,
	score float64,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.scores[userID] == nil {
		f.scores[userID] = make(map[string]float64)
	}
	f.scores[userID][category] = score

	return nil
}

func (f *fakeStore) AppendInteraction(
	_ context.Context,
	userID int64,
	category string,
	action models.Action,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.interactions = append(f.interactions, models.Interaction{
		UserID:   userID,
		Category: category,
		Action:   action,
	})

	return nil
}

func (f *fakeStore) AppendReward(_ context.Context, _ int64, reward int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rewards = append(f.rewards, reward)

	return nil
}

func (f *fakeStore) GetInteractionCounts(
	_ context.Context,
	action models.Action,
) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int64)
	for _, interaction := range f.interactions {
		if interaction.Action == action {
			counts[interaction.Category]++
		}
	}

	return counts, nil
}

type stubSession struct {
	window []string
}

func (s *stubSession) Push(category string) { s.window = append(s.window, category) }

func (s *stubSession) Recent() []string { return s.window }

type stubRand struct {
	value float64
}

func (r stubRand) Float64() float64 { return r.value }

func (r stubRand) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func testConfig(epsilon float64) Config {
	return Config{
		Alpha:         0.1,
		Epsilon:       epsilon,
		TrendWeight:   0.2,
		RecencyWeight: 0.5,
		Rewards:       DefaultRewards(),
	}
}

func newTestEngine(store *fakeStore, epsilon float64, rng Rand) *Engine {
	return NewEngine(store, testConfig(epsilon), slog.Default()).WithRand(rng)
}

func TestRepeatedLikesConvergeMonotonicallyTowardOne(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	ctx := context.Background()

	prev := 0.0
	for i := 0; i < 100; i++ {
		if err := engine.RecordFeedback(ctx, 1, nil, "sports", models.ActionLike); err != nil {
			t.Fatalf("unexpected error on like %d: %v", i, err)
		}

		score := store.scores[1]["sports"]
		if score <= prev {
			t.Fatalf("score did not increase at step %d: %v -> %v", i, prev, score)
		}
		if score > 1 {
			t.Fatalf("score exceeded 1 at step %d: %v", i, score)
		}

		prev = score
	}

	if 1-prev > 0.001 {
		t.Fatalf("score did not converge toward 1 after 100 likes: %v", prev)
	}
}

func TestAlternatingFeedbackStaysWithinRewardRange(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		action := models.ActionLike
		if i%2 == 1 {
			action = models.ActionDislike
		}

		if err := engine.RecordFeedback(ctx, 1, nil, "health", action); err != nil {
			t.Fatalf("unexpected error at step %d: %v", i, err)
		}

		score := store.scores[1]["health"]
		if score < -1 || score > 1 {
			t.Fatalf("score left [-1, 1] at step %d: %v", i, score)
		}
	}
}

func TestTwoLikesProduceExpectedScores(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	ctx := context.Background()

	if err := engine.RecordFeedback(ctx, 1, nil, "sports", models.ActionLike); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.scores[1]["sports"]; math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("expected score 0.1 after first like, got %v", got)
	}

	if err := engine.RecordFeedback(ctx, 1, nil, "sports", models.ActionLike); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.scores[1]["sports"]; math.Abs(got-0.19) > 1e-9 {
		t.Fatalf("expected score 0.19 after second like, got %v", got)
	}
}

func TestSaveAppliesStrongerRewardWithoutInteractionRow(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	ctx := context.Background()

	if err := engine.RecordSave(ctx, 1, "technology"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.scores[1]["technology"]; math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("expected score 0.2 after save, got %v", got)
	}

	if len(store.interactions) != 0 {
		t.Fatalf("save must not append an interaction row, got %d", len(store.interactions))
	}

	if len(store.rewards) != 1 || store.rewards[0] != 2 {
		t.Fatalf("expected one reward-log entry of 2, got %v", store.rewards)
	}
}

func TestFeedbackRejectsInvalidActionBeforeMutation(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	sess := &stubSession{}

	err := engine.RecordFeedback(context.Background(), 1, sess, "sports", models.Action("meh"))
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}

	if len(store.scores) != 0 || len(store.interactions) != 0 || len(store.rewards) != 0 {
		t.Fatalf("invalid action must not mutate the store")
	}

	if len(sess.window) != 0 {
		t.Fatalf("invalid action must not touch the session window")
	}
}

func TestFeedbackRejectsUnknownCategoryBeforeMutation(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})

	err := engine.RecordFeedback(context.Background(), 1, nil, "astrology", models.ActionLike)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}

	if len(store.scores) != 0 || len(store.interactions) != 0 {
		t.Fatalf("unknown category must not mutate the store")
	}
}

func TestRankAlwaysReturnsExactlyTheFixedCategories(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	for _, epsilonDraw := range []float64{0, 0.5, 0.99} {
		engine := newTestEngine(store, 0.2, stubRand{value: epsilonDraw})

		ranking, err := engine.Rank(ctx, 1, &stubSession{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := slices.Clone(ranking.Categories)
		slices.Sort(got)

		want := slices.Clone(Categories)
		slices.Sort(want)

		if !slices.Equal(got, want) {
			t.Fatalf("expected exactly the fixed categories, got %v", ranking.Categories)
		}
	}
}

func TestRankExploitsDeterministicallyWithEpsilonZero(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 0})
	ctx := context.Background()

	if err := store.UpsertScore(ctx, 1, "health", 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.UpsertScore(ctx, 1, "sports", 0.3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ranking, err := engine.Rank(ctx, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ranking.Explored {
		t.Fatalf("expected exploitation with epsilon 0")
	}

	// health and sports lead on score; the remaining three tie at 0 and
	// order by name.
	want := []string{"health", "sports", "entertainment", "general", "technology"}
	if !slices.Equal(ranking.Categories, want) {
		t.Fatalf("expected order %v, got %v", want, ranking.Categories)
	}
}

func TestRankExplorationOverridesTotals(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0.2, stubRand{value: 0.1})
	ctx := context.Background()

	if err := store.UpsertScore(ctx, 1, "general", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ranking, err := engine.Rank(ctx, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ranking.Explored {
		t.Fatalf("expected exploration with draw 0.1 < epsilon 0.2")
	}

	// The stub shuffle reverses the fixed order, proving totals were
	// ignored.
	want := []string{"health", "entertainment", "technology", "sports", "general"}
	if !slices.Equal(ranking.Categories, want) {
		t.Fatalf("expected reversed order %v, got %v", want, ranking.Categories)
	}
}

func TestNewUserRanksByGlobalBoostAndTieBreak(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	// Existing users' likes feed the global trend only.
	other := newTestEngine(store, 0, stubRand{value: 1})
	for i := 0; i < 3; i++ {
		if err := other.RecordFeedback(ctx, 7, nil, "technology", models.ActionLike); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	engine := newTestEngine(store, 0, stubRand{value: 1})

	ranking, err := engine.Rank(ctx, 1, &stubSession{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"technology", "entertainment", "general", "health", "sports"}
	if !slices.Equal(ranking.Categories, want) {
		t.Fatalf("expected order %v, got %v", want, ranking.Categories)
	}

	for _, exp := range ranking.Explanations {
		if exp.Base != 0 {
			t.Fatalf("new user must have zero base score, got %v for %s", exp.Base, exp.Category)
		}
		if exp.Category == "technology" && math.Abs(exp.Global-0.6) > 1e-9 {
			t.Fatalf("expected global boost 0.6 for technology, got %v", exp.Global)
		}
	}
}

func TestRecentCategoriesBoostTotals(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	ctx := context.Background()

	sess := &stubSession{window: []string{"health", "health", "sports"}}

	ranking, err := engine.Rank(ctx, 1, sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"health", "sports", "entertainment", "general", "technology"}
	if !slices.Equal(ranking.Categories, want) {
		t.Fatalf("expected order %v, got %v", want, ranking.Categories)
	}

	for _, exp := range ranking.Explanations {
		if exp.Category == "health" && math.Abs(exp.Recent-1.0) > 1e-9 {
			t.Fatalf("expected recent weight 1.0 for health, got %v", exp.Recent)
		}
	}
}

func TestFeedbackPushesCategoryIntoSession(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	sess := &stubSession{}

	err := engine.RecordFeedback(context.Background(), 1, sess, "sports", models.ActionDislike)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(sess.window, []string{"sports"}) {
		t.Fatalf("expected session window [sports], got %v", sess.window)
	}
}

func TestConcurrentFeedbackLosesNoUpdates(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, 0, stubRand{value: 1})
	ctx := context.Background()

	const likes = 50

	var wg sync.WaitGroup
	for i := 0; i < likes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := engine.RecordFeedback(ctx, 1, nil, "general", models.ActionLike); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	want := 0.0
	for i := 0; i < likes; i++ {
		want = updatedScore(want, 1, 0.1)
	}

	if got := store.scores[1]["general"]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected score %v after %d serialized likes, got %v", want, likes, got)
	}
}
