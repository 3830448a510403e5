package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newsrank/internal/models"
)

// GetOrCreateUser resolves a username to its numeric ID, creating the row
// on first reference. Insert-or-ignore followed by select keeps the
// operation safe against two concurrent first visits.
func (d *Database) GetOrCreateUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is empty")
	}

	insert := "insert or ignore into users (username) values (?)"

	if _, err := d.db.ExecContext(ctx, insert, username); err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	query := "select id from users where username = ?"

	var id int64
	if err := d.db.QueryRowContext(ctx, query, username).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &models.User{ID: id, Username: username}, nil
}

// GetScores returns every category the user has a recorded score for.
// Absent categories implicitly score 0.
func (d *Database) GetScores(ctx context.Context, userID int64) (map[string]float64, error) {
	query := "select category, score from preferences where user_id = ?"

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "GetScores")
		}
	}()

	scores := make(map[string]float64)
	for rows.Next() {
		var (
			category string
			score    float64
		)
		if err = rows.Scan(&category, &score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		scores[category] = score
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return scores, nil
}

// UpsertScore unconditionally sets the score for (user, category), creating
// the row if absent and bumping the interaction counter. Read-modify-write
// atomicity is the caller's responsibility.
func (d *Database) UpsertScore(
	ctx context.Context,
	userID int64,
	category string,
	score float64,
) error {
	query := `insert into preferences (user_id, category, score, interactions)
	values (?, ?, ?, 1)
	on conflict (user_id, category) do update
	set score = excluded.score,
	interactions = preferences.interactions + 1`

	_, err := d.db.ExecContext(ctx, query, userID, category, score)

	return err
}

func (d *Database) AppendInteraction(
	ctx context.Context,
	userID int64,
	category string,
	action models.Action,
) error {
	query := "insert into interactions (user_id, category, action) values (?, ?, ?)"

	_, err := d.db.ExecContext(ctx, query, userID, category, string(action))

	return err
}

func (d *Database) AppendReward(ctx context.Context, userID int64, reward int64) error {
	query := "insert into reward_log (user_id, reward) values (?, ?)"

	_, err := d.db.ExecContext(ctx, query, userID, reward)

	return err
}

func (d *Database) AppendSaved(
	ctx context.Context,
	userID int64,
	title string,
	url string,
	category string,
) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("article title is empty")
	}

	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("article URL is empty")
	}

	query := "insert into saved_articles (user_id, title, url, category) values (?, ?, ?, ?)"

	_, err := d.db.ExecContext(ctx, query, userID, title, url, category)

	return err
}

func (d *Database) GetSavedArticles(
	ctx context.Context,
	userID int64,
) ([]models.SavedArticle, error) {
	query := `select id, title, url, category, timestamp
	from saved_articles
	where user_id = ?
	order by timestamp desc`

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "GetSavedArticles")
		}
	}()

	var articles []models.SavedArticle
	for rows.Next() {
		var a models.SavedArticle
		if err = rows.Scan(&a.ID, &a.Title, &a.URL, &a.Category, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.UserID = userID
		articles = append(articles, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return articles, nil
}

// GetInteractionCounts aggregates interactions with the given action across
// all users, keyed by category.
func (d *Database) GetInteractionCounts(
	ctx context.Context,
	action models.Action,
) (map[string]int64, error) {
	query := `select category, count(*)
	from interactions
	where action = ?
	group by category`

	rows, err := d.db.QueryContext(ctx, query, string(action))
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"action", string(action),
				"operation", "GetInteractionCounts")
		}
	}()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			category string
			count    int64
		)
		if err = rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		counts[category] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return counts, nil
}

func (d *Database) GetRewardStats(
	ctx context.Context,
	userID int64,
) (*models.RewardStats, error) {
	query := `select count(*), coalesce(avg(reward), 0)
	from reward_log
	where user_id = ?`

	var stats models.RewardStats
	err := d.db.QueryRowContext(ctx, query, userID).
		Scan(&stats.Interactions, &stats.AverageReward)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &stats, nil
}
