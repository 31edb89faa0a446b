package gen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	t.Run("Message", func(t *testing.T) {
		err := NewConfigError("Language", "rust", "language not found", "go", "python", "typescript")
		assert.Equal(t, `tablegen: config error for "Language" (value: rust): language not found (available: go, python, typescript)`, err.Error())
	})
	t.Run("Sentinel", func(t *testing.T) {
		err := NewConfigError("Engine", "fast", "unknown engine variant")
		assert.ErrorIs(t, err, ErrConfig)
		assert.True(t, IsConfigError(err))
		assert.False(t, IsSecurityError(err))
	})
	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("loading run: %w", NewConfigError("Schema", nil, "schema is required"))
		assert.True(t, IsConfigError(err))
		var cerr *ConfigError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "Schema", cerr.Option)
	})
}

func TestSecurityError(t *testing.T) {
	err := &SecurityError{Ident: "../etc", Message: "language identifier must match [a-z][a-z0-9_]*"}
	assert.ErrorIs(t, err, ErrSecurity)
	assert.True(t, IsSecurityError(err))
	assert.Contains(t, err.Error(), `"../etc"`)
}

func TestContractError(t *testing.T) {
	err := &ContractError{Lang: "python", Domain: "field types", Missing: []string{"bytes", "json"}}
	assert.ErrorIs(t, err, ErrContract)
	assert.True(t, IsContractError(err))
	assert.Equal(t, "tablegen: type mapping for python is missing field types entries: bytes, json", err.Error())
}

func TestGenerationError(t *testing.T) {
	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewGenerationError("write", "user.py", "write temp file", cause)
		assert.ErrorIs(t, err, ErrGeneration)
		assert.True(t, IsGenerationError(err))
		assert.Equal(t, cause, errors.Unwrap(err))
		assert.Contains(t, err.Error(), "disk full")
	})
	t.Run("NoCause", func(t *testing.T) {
		err := NewGenerationError("example", "pat", "key argument did not resolve", nil)
		assert.Nil(t, errors.Unwrap(err))
		assert.Equal(t, "tablegen: generation error in phase example (file: pat): key argument did not resolve", err.Error())
	})
}
