package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		name  string
		level string
		env   string
		want  logrus.Level
	}{
		{name: "explicit level", level: "debug", want: logrus.DebugLevel},
		{name: "upper case level", level: "WARN", want: logrus.WarnLevel},
		{name: "env fallback", env: "error", want: logrus.ErrorLevel},
		{name: "invalid level", level: "loud", want: logrus.InfoLevel},
		{name: "nothing set", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, tt.env)
			log := New(Options{Level: tt.level, Output: &bytes.Buffer{}})
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	var buf bytes.Buffer
	log := New(Options{Format: FormatJSON, Output: &buf})

	log.WithField("instance", "vm-1").Info("applied")

	assert.Contains(t, buf.String(), `"instance":"vm-1"`)
	assert.Contains(t, buf.String(), `"msg":"applied"`)
}
