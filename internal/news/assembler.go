package news

import (
	"context"
	"log/slog"
	"sync"

	"newsrank/internal/models"
)

const assembleMaxConcurrency = 3

// categoryQueries maps each category to the free-text query sent to the
// provider for it.
var categoryQueries = map[string]string{
	"general":       "latest news",
	"sports":        "sports cricket football",
	"technology":    "technology AI software",
	"entertainment": "movies music celebrities",
	"health":        "health fitness medicine",
}

// Fetcher is the provider surface the assembler needs. Implemented by
// *Client.
type Fetcher interface {
	Fetch(ctx context.Context, query string, page int, pageSize int) ([]models.Article, error)
}

// Assembler builds a feed by fetching one page per category and
// concatenating the blocks in ranked-category order. Ranking decides the
// coarse blocks of the feed; within a block the provider's order is kept.
type Assembler struct {
	client   Fetcher
	pageSize int
	log      *slog.Logger
}

func NewAssembler(client Fetcher, pageSize int, log *slog.Logger) *Assembler {
	return &Assembler{
		client:   client,
		pageSize: pageSize,
		log:      log,
	}
}

// Assemble fetches the given page for every category. Categories are
// fetched with bounded concurrency into indexed slots so the output
// preserves the ranked order. A failed category degrades to an empty block;
// context cancellation abandons the remaining fetches and discards
// already-fetched blocks.
func (a *Assembler) Assemble(
	ctx context.Context,
	categories []string,
	page int,
) ([]models.Article, error) {
	blocks := make([][]models.Article, len(categories))

	var wg sync.WaitGroup
	semCh := make(chan struct{}, assembleMaxConcurrency)

	for i, category := range categories {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case semCh <- struct{}{}:
		}

		wg.Add(1)

		go func(slot int, category string) {
			defer wg.Done()
			defer func() { <-semCh }()

			query, ok := categoryQueries[category]
			if !ok {
				query = category
			}

			articles, err := a.client.Fetch(ctx, query, page, a.pageSize)
			if err != nil {
				a.log.WarnContext(ctx, "Category fetch is degraded to empty block",
					"error", err,
					"category", category,
					"page", page)

				return
			}

			for j := range articles {
				articles[j].Category = category
			}

			blocks[slot] = articles
		}(i, category)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var feed []models.Article
	for _, block := range blocks {
		feed = append(feed, block...)
	}

	return feed, nil
}

// Search queries the provider directly with the raw string. This path
// bypasses category ranking entirely.
func (a *Assembler) Search(
	ctx context.Context,
	query string,
	page int,
) ([]models.Article, error) {
	return a.client.Fetch(ctx, query, page, a.pageSize)
}
