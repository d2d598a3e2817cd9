package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func acc(v float64) *float64 { return &v }

func TestCheckOutOfRange(t *testing.T) {
	v := NewValidator(20)

	assert.Equal(t, RejectOutOfRange, v.Check(91, 28, acc(5)))
	assert.Equal(t, RejectOutOfRange, v.Check(-90.5, 28, acc(5)))
	assert.Equal(t, RejectOutOfRange, v.Check(-26, 181, acc(5)))
	assert.Equal(t, RejectOutOfRange, v.Check(-26, -180.1, acc(5)))
}

func TestCheckVirtual(t *testing.T) {
	v := NewValidator(20)

	// Simulator builds emit coordinates whose digits contain "122"
	assert.Equal(t, RejectVirtual, v.Check(-26.1220000, 28.0473, acc(5)))
	assert.Equal(t, RejectVirtual, v.Check(-26.2041, 12.2001, acc(5)))
}

func TestCheckAccuracyGate(t *testing.T) {
	v := NewValidator(20)

	assert.Equal(t, RejectInaccurate, v.Check(-26.2041, 28.0473, nil))
	assert.Equal(t, RejectInaccurate, v.Check(-26.2041, 28.0473, acc(20.5)))
	assert.Equal(t, Accept, v.Check(-26.2041, 28.0473, acc(20)))
	assert.Equal(t, Accept, v.Check(-26.2041, 28.0473, acc(3)))
}

func TestIsVirtualCoordinate(t *testing.T) {
	assert.True(t, IsVirtualCoordinate(-26.122))
	assert.True(t, IsVirtualCoordinate(1.22))   // digits 122
	assert.True(t, IsVirtualCoordinate(31.2205))
	assert.False(t, IsVirtualCoordinate(-26.2041))
	assert.False(t, IsVirtualCoordinate(28.0473))
	assert.False(t, IsVirtualCoordinate(0))
}
