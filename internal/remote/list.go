package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spanow/ummati/internal/domain"
)

// List fetches one page of a listing endpoint.
func List[T any](ctx context.Context, c *Client, path string, filters domain.Filters, headers map[string]string) (domain.Page[T], error) {
	var page domain.Page[T]
	err := c.do(ctx, request{
		op:      "list " + path,
		method:  http.MethodGet,
		path:    path,
		query:   filters.Values(),
		headers: headers,
	}, &page)
	if err != nil {
		return domain.Page[T]{}, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

// Collection is a listing endpoint bound to a client. It satisfies the
// query package's Fetcher interface.
type Collection[T any] struct {
	client  *Client
	path    string
	headers map[string]string
}

// NewCollection binds path on c. Headers are sent with every request.
func NewCollection[T any](c *Client, path string, headers map[string]string) *Collection[T] {
	return &Collection[T]{client: c, path: path, headers: headers}
}

// Path returns the listing path.
func (col *Collection[T]) Path() string {
	return col.path
}

// Fetch loads the page selected by filters.
func (col *Collection[T]) Fetch(ctx context.Context, filters domain.Filters) (domain.Page[T], error) {
	return List[T](ctx, col.client, col.path, filters, col.headers)
}

// RegisterForEvent signs the current user up for the event with id.
func (c *Client) RegisterForEvent(ctx context.Context, eventID string) error {
	return c.do(ctx, request{
		op:     "register",
		method: http.MethodPost,
		path:   "/events/" + url.PathEscape(eventID) + "/register",
	}, nil)
}
