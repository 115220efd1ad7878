package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type point struct {
	name string
	lat  float64
	lon  float64
}

func (p point) Coordinates() (float64, float64) {
	return p.lat, p.lon
}

func TestDistance(t *testing.T) {
	// Jakarta to Bandung is roughly 120 km as the crow flies.
	d := Distance(-6.2088, 106.8456, -6.9175, 107.6191)
	assert.InDelta(t, 120, d, 10)

	// Same point is zero.
	assert.InDelta(t, 0, Distance(-6.2088, 106.8456, -6.2088, 106.8456), 0.001)

	// Symmetric.
	assert.InDelta(t,
		Distance(-6.2088, 106.8456, -7.2575, 112.7521),
		Distance(-7.2575, 112.7521, -6.2088, 106.8456),
		0.001,
	)
}

func TestSortByDistance(t *testing.T) {
	points := []point{
		{"surabaya", -7.2575, 112.7521},
		{"bandung", -6.9175, 107.6191},
		{"depok", -6.4025, 106.7942},
	}

	// Origin: Jakarta.
	SortByDistance(points, -6.2088, 106.8456)

	assert.Equal(t, "depok", points[0].name)
	assert.Equal(t, "bandung", points[1].name)
	assert.Equal(t, "surabaya", points[2].name)
}

func TestSortByDistanceEmpty(t *testing.T) {
	var points []point
	SortByDistance(points, 0, 0)
	assert.Empty(t, points)
}
