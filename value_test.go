package linguine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_KindDefaults(t *testing.T) {
	var v Value
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int32(0), v.Int())
}

func TestValue_IntFloatKinds(t *testing.T) {
	tests := []struct {
		name     string
		v        Value
		wantKind Kind
	}{
		{"int", IntValue(42), KindInt},
		{"negative int", IntValue(-7), KindInt},
		{"float", FloatValue(3.5), KindFloat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.v.Kind())
		})
	}
}

func TestValue_IsHeap(t *testing.T) {
	assert.False(t, IntValue(1).isHeap())
	assert.False(t, FloatValue(1).isHeap())
	assert.True(t, stringValue(0).isHeap())
	assert.True(t, arrayValue(0).isHeap())
	assert.True(t, dictValue(0).isHeap())
	assert.False(t, funcValue(0).isHeap())
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindInt, "int"},
		{KindFloat, "float"},
		{KindString, "string"},
		{KindArray, "array"},
		{KindDict, "dict"},
		{KindFunc, "func"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.k.String())
	}
}
