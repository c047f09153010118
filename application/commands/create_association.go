package commands

import "errors"

// CreateAssociationCommand represents a command to create a directed edge
type CreateAssociationCommand struct {
	SourceID string
	DestID   string
	Type     string
}

// Validate validates the CreateAssociationCommand
func (c CreateAssociationCommand) Validate() error {
	if c.SourceID == "" {
		return errors.New("source ID is required")
	}
	if c.DestID == "" {
		return errors.New("destination ID is required")
	}
	return nil
}
