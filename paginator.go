package hoyokit

import (
	"context"
	"time"
)

// pagePause is the courtesy delay between page fetches. The platform rate
// limits aggressive pagination.
const pagePause = 500 * time.Millisecond

// PageFunc fetches one page of items, with endID as the exclusive upper
// cursor (0 on the first call).
type PageFunc[T any] func(ctx context.Context, endID int64) ([]T, error)

// Paginator drives repeated page fetches over a list endpoint with strictly
// decreasing item ids. Items arrive in the platform's own reverse
// chronological order; callers wanting chronological order re-sort.
type Paginator[T any] struct {
	// Fetch returns the next page for a cursor.
	Fetch PageFunc[T]
	// ID extracts the cursor id from an item.
	ID func(T) int64
	// EndID stops the scan when an item with exactly this id is seen; the
	// item itself is excluded. Zero means no boundary.
	EndID int64
	// MinID stops the scan at the first item with id <= MinID, excluding
	// it. Zero means no bound.
	MinID int64
	// Limit caps the number of collected items. Zero means unbounded.
	Limit int
}

// Collect runs the paginator to completion and returns the accumulated
// items.
func (p *Paginator[T]) Collect(ctx context.Context) ([]T, error) {
	var (
		items  []T
		cursor int64
		first  = true
	)
	for {
		if !first {
			select {
			case <-time.After(pagePause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		first = false

		page, err := p.Fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return items, nil
		}
		for _, item := range page {
			id := p.ID(item)
			if p.EndID != 0 && id == p.EndID {
				return p.truncate(items), nil
			}
			if p.MinID != 0 && id <= p.MinID {
				return p.truncate(items), nil
			}
			items = append(items, item)
			cursor = id
		}
		if p.Limit > 0 && len(items) >= p.Limit {
			return p.truncate(items), nil
		}
	}
}

func (p *Paginator[T]) truncate(items []T) []T {
	if p.Limit > 0 && len(items) > p.Limit {
		return items[:p.Limit]
	}
	return items
}
