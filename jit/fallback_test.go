//go:build !(amd64 && linux)

package jit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCompiler_UnsupportedOnNonAmd64Linux(t *testing.T) {
	_, err := NewCompiler()
	assert.ErrorIs(t, err, ErrUnsupported)
}
