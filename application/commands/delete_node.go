package commands

import "errors"

// DeleteNodeCommand represents a command to delete a node directly.
// The delete fails while any association still references the node; callers
// wanting edges drained first should use the cascade service instead.
type DeleteNodeCommand struct {
	NodeID string
}

// Validate validates the DeleteNodeCommand
func (c DeleteNodeCommand) Validate() error {
	if c.NodeID == "" {
		return errors.New("node ID is required")
	}
	return nil
}
