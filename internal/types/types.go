// Package types provides type definitions shared across packages
package types

import "fmt"

// ProvisionedInstance is the identity and address of a provisioned machine. It is never
// persisted by the workflows; apply re-derives it from the engine outputs every time.
type ProvisionedInstance struct {
	Name string `json:"name"` // Instance name as reported by the engine
	IP   string `json:"ip"`   // Public IP address
}

// Validate checks that both fields are populated
func (i *ProvisionedInstance) Validate() error {
	if i == nil {
		return fmt.Errorf("instance is nil")
	}
	if i.Name == "" {
		return fmt.Errorf("instance name is empty")
	}
	if i.IP == "" {
		return fmt.Errorf("instance ip is empty")
	}
	return nil
}

// String renders the instance for operator messages
func (i ProvisionedInstance) String() string {
	return fmt.Sprintf("Name: %s, IP: %s", i.Name, i.IP)
}
