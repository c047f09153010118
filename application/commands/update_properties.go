package commands

import "errors"

// UpdatePropertiesCommand represents a command to merge properties into a node
type UpdatePropertiesCommand struct {
	NodeID     string
	Properties map[string]string
}

// Validate validates the UpdatePropertiesCommand
func (c UpdatePropertiesCommand) Validate() error {
	if c.NodeID == "" {
		return errors.New("node ID is required")
	}
	if len(c.Properties) == 0 {
		return errors.New("properties delta cannot be empty")
	}
	return nil
}
