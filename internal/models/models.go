package models

import "time"

// Action is a user feedback signal. The set is closed: anything else is
// rejected before any state is touched.
type Action string

const (
	ActionLike    Action = "like"
	ActionDislike Action = "dislike"
	ActionSave    Action = "save"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CategoryScore is the learned preference of one user for one category.
// Score is only ever written through the incremental update rule.
type CategoryScore struct {
	UserID       int64
	Category     string
	Score        float64
	Interactions int64
}

type Interaction struct {
	ID        int64
	UserID    int64
	Category  string
	Action    Action
	Timestamp time.Time
}

type RewardLogEntry struct {
	ID        int64
	UserID    int64
	Reward    int64
	Timestamp time.Time
}

type SavedArticle struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
}

// RewardStats backs the per-user metrics endpoint.
type RewardStats struct {
	Interactions  int64   `json:"interactions"`
	AverageReward float64 `json:"averageReward"`
}
