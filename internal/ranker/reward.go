package ranker

import "newsrank/internal/models"

// DefaultRewards maps each feedback signal to its numeric reward. Save is a
// stronger positive signal than a like.
func DefaultRewards() map[models.Action]float64 {
	return map[models.Action]float64{
		models.ActionLike:    1,
		models.ActionDislike: -1,
		models.ActionSave:    2,
	}
}

// updatedScore folds a reward into the current score with the incremental
// rule new = old + alpha*(reward - old). The correction term keeps scores
// inside the reward range instead of growing without bound under repeated
// feedback of one sign.
func updatedScore(old, reward, alpha float64) float64 {
	return old + alpha*(reward-old)
}
