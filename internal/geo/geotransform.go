// Package geo maps raster pixel indices to geographic coordinates.
package geo

// GeoTransform holds the six GDAL-style affine coefficients:
// [0]=origin x, [1]=pixel width, [2]=row rotation,
// [3]=origin y, [4]=column rotation, [5]=pixel height (negative for
// north-up rasters).
type GeoTransform [6]float64

// PixelToGeo returns the longitude and latitude of the top-left corner
// of pixel (x, y).
func (gt GeoTransform) PixelToGeo(x, y int) (lon, lat float64) {
	fx := float64(x)
	fy := float64(y)
	lon = gt[0] + fx*gt[1] + fy*gt[2]
	lat = gt[3] + fx*gt[4] + fy*gt[5]
	return lon, lat
}
