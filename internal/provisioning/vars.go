package provisioning

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// VarProjectID is the variable declaring the target project
const VarProjectID = "project_id"

// RenderVars renders the variables file declaring the target project
func RenderVars(projectID string) []byte {
	value := hclwrite.TokensForValue(cty.StringVal(projectID)).Bytes()
	return []byte(fmt.Sprintf("%s=%s\n", VarProjectID, value))
}

// ParseVars reads the top-level assignments of a variables file. Strings, numbers and
// bools are returned in their string form; nulls, lists and objects are skipped.
func ParseVars(data []byte) (map[string]string, error) {
	return parseVars(data, "vars.tfvars")
}

func parseVars(data []byte, filename string) (map[string]string, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	vars := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(&hcl.EvalContext{})
		if diags.HasErrors() {
			return nil, diags
		}
		if val.IsNull() || !val.IsWhollyKnown() || !val.Type().IsPrimitiveType() {
			continue
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		vars[name] = str.AsString()
	}
	return vars, nil
}

// ReadProjectID returns the project declared in the variables file at path
func ReadProjectID(path string) (string, error) {
	// #nosec G304 -- the variables file path is fixed by the environment layout
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read variables file: %w", err)
	}
	vars, err := parseVars(data, path)
	if err != nil {
		return "", fmt.Errorf("failed to parse variables file: %w", err)
	}
	project := vars[VarProjectID]
	if project == "" {
		return "", fmt.Errorf("%s is not set in %s", VarProjectID, path)
	}
	return project, nil
}
