package queries

import "errors"

// GetNodeQuery looks up a node by identifier, or by category-scoped name when
// the identifier is not known.
type GetNodeQuery struct {
	NodeID   string
	Category string
	Name     string
}

// Validate validates the GetNodeQuery
func (q GetNodeQuery) Validate() error {
	if q.NodeID == "" && (q.Category == "" || q.Name == "") {
		return errors.New("either node ID or category and name are required")
	}
	return nil
}
