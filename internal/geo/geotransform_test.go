package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPixelToGeoNorthUp(t *testing.T) {
	gt := GeoTransform{5.0, 0.001, 0, 46.0, 0, -0.001}

	lon, lat := gt.PixelToGeo(0, 0)
	assert.Equal(t, 5.0, lon)
	assert.Equal(t, 46.0, lat)

	lon, lat = gt.PixelToGeo(100, 200)
	assert.InDelta(t, 5.1, lon, 1e-12)
	assert.InDelta(t, 45.8, lat, 1e-12)
}

func TestPixelToGeoRotationTerms(t *testing.T) {
	gt := GeoTransform{10.0, 0.5, 0.1, 50.0, -0.2, -0.5}

	lon, lat := gt.PixelToGeo(3, 7)
	assert.InDelta(t, 10.0+3*0.5+7*0.1, lon, 1e-12)
	assert.InDelta(t, 50.0+3*-0.2+7*-0.5, lat, 1e-12)
}

func TestPixelToGeoReproducible(t *testing.T) {
	gt := GeoTransform{5.123456789, 0.000277, 0, 47.987654321, 0, -0.000277}

	lon1, lat1 := gt.PixelToGeo(12345, 6789)
	lon2, lat2 := gt.PixelToGeo(12345, 6789)

	assert.Equal(t, math.Float64bits(lon1), math.Float64bits(lon2))
	assert.Equal(t, math.Float64bits(lat1), math.Float64bits(lat2))
}
