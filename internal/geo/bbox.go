// Package geo holds the small spatial helpers shared by the source
// adapters that post-filter directory results around the target location.
package geo

import "github.com/twpayne/go-geom"

// BoxAround returns a bounding box spanning radiusDeg degrees in each
// direction from the center. Degrees rather than true distance, matching
// the coarse prefilter the upstream directories apply themselves.
func BoxAround(lat, lng, radiusDeg float64) *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(
		lng-radiusDeg, lat-radiusDeg,
		lng+radiusDeg, lat+radiusDeg,
	)
}

// InBox reports whether the point lies inside the box, edges included.
func InBox(b *geom.Bounds, lat, lng float64) bool {
	return b.OverlapsPoint(geom.XY, geom.Coord{lng, lat})
}
