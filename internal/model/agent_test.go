package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murmuration-labs/murmur/internal/model"
)

func TestValidateHandle_Valid(t *testing.T) {
	valid := []string{
		"alice",
		"alice.bsky",
		"Agent_01",
		"a",
		"0day",
		strings.Repeat("a", 64),
	}
	for _, h := range valid {
		require.NoError(t, model.ValidateHandle(h), "expected valid: %q", h)
	}
}

func TestValidateHandle_Invalid(t *testing.T) {
	invalid := []string{
		"",
		".leading-dot",
		"-leading-dash",
		"has space",
		"has/slash",
		strings.Repeat("a", 65),
	}
	for _, h := range invalid {
		require.Error(t, model.ValidateHandle(h), "expected invalid: %q", h)
	}
}
