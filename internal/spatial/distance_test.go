package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{-26.2041, 28.0473, -26.2050, 28.0480},
		{0, 0, 10, 10},
		{51.5074, -0.1278, 48.8566, 2.3522},
		{-33.9249, 18.4241, 59.3293, 18.0686},
	}

	for _, p := range pairs {
		ab := Distance(p[0], p[1], p[2], p[3])
		ba := Distance(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Distance(-26.2041, 28.0473, -26.2041, 28.0473))
}

func TestDistanceKnownValue(t *testing.T) {
	// London to Paris is roughly 344 km
	km := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 344, km, 5)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "250 m", FormatDistance(0.25))
	assert.Equal(t, "1.5 km", FormatDistance(1.5))
	assert.Equal(t, "0 m", FormatDistance(-1))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45m", FormatDuration(45))
	assert.Equal(t, "1h 05m", FormatDuration(65))
	assert.Equal(t, "0m", FormatDuration(0))
}
