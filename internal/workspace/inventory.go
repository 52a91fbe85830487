package workspace

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Built-in inventory layouts
const (
	// LayoutHost names the host and points ansible_host at its address
	LayoutHost = "host"
	// LayoutKeyed addresses the host by IP and carries the user and private key
	LayoutKeyed = "keyed"
)

var layouts = map[string]string{
	LayoutHost:  "[all]\n{{ .Name | trim }} ansible_host={{ .IP | trim }}\n",
	LayoutKeyed: "[all]\n{{ .IP | trim }} ansible_user={{ .User | default \"ansible\" }} ansible_ssh_private_key_file={{ .KeyPath }}\n",
}

// InventoryOptions selects the inventory template
type InventoryOptions struct {
	Layout       string // LayoutHost (default) or LayoutKeyed
	TemplateFile string // custom template, overrides Layout
	User         string // ansible_user for LayoutKeyed
	KeyPath      string // private key for LayoutKeyed
}

// inventoryData is what the inventory template is rendered with
type inventoryData struct {
	Name    string
	IP      string
	User    string
	KeyPath string
}

func parseInventoryTemplate(opts InventoryOptions) (*template.Template, error) {
	var body string
	switch {
	case opts.TemplateFile != "":
		// #nosec G304 -- template path comes from the operator's configuration
		data, err := os.ReadFile(opts.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read inventory template: %w", err)
		}
		body = string(data)
	case opts.Layout == "":
		body = layouts[LayoutHost]
	default:
		var ok bool
		body, ok = layouts[opts.Layout]
		if !ok {
			return nil, fmt.Errorf("unknown inventory layout %q", opts.Layout)
		}
	}

	tmpl, err := template.New("inventory").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory template: %w", err)
	}
	return tmpl, nil
}

func renderInventory(tmpl *template.Template, data inventoryData) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render inventory: %w", err)
	}
	return buf.Bytes(), nil
}
