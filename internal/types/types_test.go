package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvisionedInstance_Validate(t *testing.T) {
	tests := []struct {
		name     string
		instance *ProvisionedInstance
		wantErr  bool
	}{
		{name: "valid", instance: &ProvisionedInstance{Name: "vm-1", IP: "10.0.0.5"}},
		{name: "nil", instance: nil, wantErr: true},
		{name: "missing name", instance: &ProvisionedInstance{IP: "10.0.0.5"}, wantErr: true},
		{name: "missing ip", instance: &ProvisionedInstance{Name: "vm-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.instance.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProvisionedInstance_String(t *testing.T) {
	assert.Equal(t, "Name: vm-1, IP: 10.0.0.5", ProvisionedInstance{Name: "vm-1", IP: "10.0.0.5"}.String())
}
