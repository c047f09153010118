package commands

import "errors"

// DeleteAssociationCommand represents a command to delete the edge for an ordered pair
type DeleteAssociationCommand struct {
	SourceID string
	DestID   string
}

// Validate validates the DeleteAssociationCommand
func (c DeleteAssociationCommand) Validate() error {
	if c.SourceID == "" {
		return errors.New("source ID is required")
	}
	if c.DestID == "" {
		return errors.New("destination ID is required")
	}
	return nil
}
