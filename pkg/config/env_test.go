package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 8080},
		{"valid", "9090", 9090},
		{"padded", " 42 ", 42},
		{"invalid", "abc", 8080},
		{"float", "1.5", 8080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			assert.Equal(t, tt.want, GetEnvInt("TEST_INT", 8080))
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"true", false, true},
		{"1", false, true},
		{"FALSE", true, false},
		{"yes", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, GetEnvBool("TEST_BOOL", tt.def))
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "1m30s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, GetEnvDuration("TEST_DURATION", time.Second))
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "fallback", GetEnvString("TEST_STRING", "fallback"))

	t.Setenv("TEST_STRING", "value")
	assert.Equal(t, "value", GetEnvString("TEST_STRING", "fallback"))
}

func TestGetEnvStringList(t *testing.T) {
	t.Setenv("TEST_LIST", "Acme Corp, Globex ,,Initech")
	assert.Equal(t, []string{"Acme Corp", "Globex", "Initech"}, GetEnvStringList("TEST_LIST", nil))

	t.Setenv("TEST_LIST", " , ,")
	assert.Equal(t, []string{"x"}, GetEnvStringList("TEST_LIST", []string{"x"}))
}
