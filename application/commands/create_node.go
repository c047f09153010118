package commands

import "errors"

// CreateNodeCommand represents a command to create a lineage node
type CreateNodeCommand struct {
	Category   string
	Subtype    string
	Name       string
	SourceURI  string
	Properties map[string]string

	// WorkflowOrigin marks nodes created by an automated workflow execution,
	// which are exempt from the per-category capacity ceiling.
	WorkflowOrigin bool
}

// Validate validates the CreateNodeCommand
func (c CreateNodeCommand) Validate() error {
	if c.Category == "" {
		return errors.New("category is required")
	}
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
