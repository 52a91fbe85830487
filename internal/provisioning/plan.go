package provisioning

import (
	"encoding/json"
	"fmt"

	tfjson "github.com/hashicorp/terraform-json"

	"github.com/celestiaorg/gcpiac/internal/types"
)

// Action is the normalized kind of change a plan makes to a resource
type Action string

// Plan actions
const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionNoOp    Action = "no-op"
	ActionRead    Action = "read"
	ActionReplace Action = "replace"
	ActionUnknown Action = "unknown"
)

// ResourceChange is one entry of a plan
type ResourceChange struct {
	Action       Action   `json:"action"`
	Actions      []string `json:"actions"`       // raw action list as reported by the engine
	ResourceName string   `json:"resource_name"` // name attribute of the prior state, may be empty
	Address      string   `json:"address,omitempty"`
	Type         string   `json:"type,omitempty"`
}

// IsDelete reports whether the change is exactly a delete
func (c ResourceChange) IsDelete() bool {
	return len(c.Actions) == 1 && c.Actions[0] == string(ActionDelete)
}

// DestroyPlan is the ordered list of changes computed by a dry-run
type DestroyPlan struct {
	Changes []ResourceChange `json:"changes"`
}

// Empty reports whether the plan holds no changes at all
func (p *DestroyPlan) Empty() bool {
	return p == nil || len(p.Changes) == 0
}

// Deleted returns the names of resources the plan deletes, in plan order. Only changes
// whose action list is exactly ["delete"] and whose prior state carries a name are returned.
func (p *DestroyPlan) Deleted() []string {
	if p == nil {
		return nil
	}
	var names []string
	for _, c := range p.Changes {
		if c.IsDelete() && c.ResourceName != "" {
			names = append(names, c.ResourceName)
		}
	}
	return names
}

func normalizeActions(actions tfjson.Actions) Action {
	switch {
	case actions.Replace():
		return ActionReplace
	case actions.Create():
		return ActionCreate
	case actions.Update():
		return ActionUpdate
	case actions.Delete():
		return ActionDelete
	case actions.NoOp():
		return ActionNoOp
	case actions.Read():
		return ActionRead
	}
	return ActionUnknown
}

// ParsePlan decodes the output of `terraform show -json` for a saved plan
func ParsePlan(data []byte) (*DestroyPlan, error) {
	var raw tfjson.Plan
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed plan json: %v", ErrAdapter, err)
	}

	plan := &DestroyPlan{Changes: make([]ResourceChange, 0, len(raw.ResourceChanges))}
	for _, rc := range raw.ResourceChanges {
		if rc == nil || rc.Change == nil {
			continue
		}
		actions := make([]string, 0, len(rc.Change.Actions))
		for _, a := range rc.Change.Actions {
			actions = append(actions, string(a))
		}
		plan.Changes = append(plan.Changes, ResourceChange{
			Action:       normalizeActions(rc.Change.Actions),
			Actions:      actions,
			ResourceName: priorName(rc.Change.Before),
			Address:      rc.Address,
			Type:         rc.Type,
		})
	}
	return plan, nil
}

// priorName extracts before.name; before is null for creates and may lack a name
func priorName(before interface{}) string {
	attrs, ok := before.(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := attrs["name"].(string)
	return name
}

// parseOutputs decodes `terraform output -json`
func parseOutputs(data []byte) (*types.ProvisionedInstance, error) {
	var raw map[string]*tfjson.StateOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed outputs: %v", ErrAdapter, err)
	}
	values := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if v != nil {
			values[k] = v.Value
		}
	}
	return instanceFromOutputs(values)
}

func stringOutput(outputs map[string]interface{}, key string) (string, error) {
	v, ok := outputs[key]
	if !ok {
		return "", fmt.Errorf("%w: output %s is missing", ErrAdapter, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: output %s is empty or not a string", ErrAdapter, key)
	}
	return s, nil
}
