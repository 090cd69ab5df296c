package notion

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
)

// Target names one database to fetch.
type Target struct {
	Title string
	ID    string
}

// Fetched is the raw response for one Target.
type Fetched struct {
	Target
	Body []byte
}

// FetchAll retrieves every target concurrently, at most MaxConcurrency at a
// time. Results keep the order of targets. The first failure cancels the rest.
func (c *Client) FetchAll(ctx context.Context, targets []Target) ([]Fetched, error) {
	results := make([]Fetched, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)

	for i, target := range targets {
		g.Go(func() error {
			body, err := c.RetrieveDatabase(ctx, target.ID)
			if err != nil {
				return errors.Wrapf(err, "failed to fetch %s", target.Title)
			}
			results[i] = Fetched{Target: target, Body: body}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.Infow("Fetched database schemas",
		logger.FieldCount, len(results))
	return results, nil
}
