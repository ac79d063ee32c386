package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/shared"
)

// PageFunc fetches the first page of a paginated collection.
type PageFunc[T any] func(ctx context.Context) (*models.Page[T], error)

// CursorFunc fetches the page identified by an opaque next-page cursor.
type CursorFunc[T any] func(ctx context.Context, cursor string) (*models.Page[T], error)

// Drain follows next-page cursors from first until a page has none, returning every item in order.
//
// Pages are fetched strictly one after another: the cursor for page N+1 is only known once page N is decoded.
// Any page failure returns that error and discards everything accumulated so far.
// A cursor cycle is not detected and keeps the loop running; the context is checked between pages,
// so a caller-imposed deadline is the only way out of one.
func Drain[T any](ctx context.Context, first PageFunc[T], next CursorFunc[T]) ([]T, error) {
	page, err := first(ctx)
	if err != nil {
		return nil, err
	}

	items := []T{}
	for {
		if page == nil {
			return nil, fmt.Errorf("%w: nil page", shared.ErrNoData)
		}
		items = append(items, page.Items...)

		if !page.HasNext() {
			return items, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
		}

		page, err = next(ctx, page.Next)
		if err != nil {
			return nil, err
		}
	}
}
