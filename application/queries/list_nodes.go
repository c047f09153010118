package queries

import (
	"context"
	"errors"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
)

// ListNodesQuery lists nodes of one category in a stable order
type ListNodesQuery struct {
	Category     string
	SortField    string
	SortOrder    string
	NameContains string
	PageSize     int

	// StartCursor resumes the listing from a previous iterator's Cursor
	StartCursor string
}

// Validate validates the ListNodesQuery
func (q ListNodesQuery) Validate() error {
	if q.Category == "" {
		return errors.New("category is required")
	}
	switch ports.SortField(q.SortField) {
	case ports.SortByCreationTime, ports.SortByName, "":
	default:
		return errors.New("sort field must be CreationTime or Name")
	}
	switch ports.SortOrder(q.SortOrder) {
	case ports.Ascending, ports.Descending, "":
	default:
		return errors.New("sort order must be Ascending or Descending")
	}
	return nil
}

// nodePageFetch pulls one page of the listing starting at the given cursor
type nodePageFetch func(ctx context.Context, cursor string) (ports.Page[*entities.Node], error)

// NodeIterator is a lazy, restartable sequence of nodes. Pages are fetched on
// demand; Cursor exposes the resume point so a caller can restart a listing
// from where a previous iterator stopped.
type NodeIterator struct {
	fetch  nodePageFetch
	buf    []*entities.Node
	cursor string
	done   bool
}

// NewNodeIterator creates an iterator over a paginated node listing
func NewNodeIterator(fetch nodePageFetch, startCursor string) *NodeIterator {
	return &NodeIterator{fetch: fetch, cursor: startCursor}
}

// Next returns the next node in the sequence, or (nil, nil) when exhausted
func (it *NodeIterator) Next(ctx context.Context) (*entities.Node, error) {
	for len(it.buf) == 0 {
		if it.done {
			return nil, nil
		}
		page, err := it.fetch(ctx, it.cursor)
		if err != nil {
			return nil, err
		}
		it.buf = page.Items
		it.cursor = page.NextCursor
		if !page.HasMore {
			it.done = true
		}
	}

	node := it.buf[0]
	it.buf = it.buf[1:]
	return node, nil
}

// Cursor returns the resume point after the most recently fetched page
func (it *NodeIterator) Cursor() string {
	return it.cursor
}

// Done reports whether the sequence is exhausted. A caller that consumed a
// full page can use this to avoid advertising a resume point into nothing.
func (it *NodeIterator) Done() bool {
	return it.done && len(it.buf) == 0
}

// Drain consumes the remainder of the sequence into a slice
func (it *NodeIterator) Drain(ctx context.Context) ([]*entities.Node, error) {
	var nodes []*entities.Node
	for {
		node, err := it.Next(ctx)
		if err != nil {
			return nodes, err
		}
		if node == nil {
			return nodes, nil
		}
		nodes = append(nodes, node)
	}
}
