package geospatial

import "github.com/paulmach/orb"

// CircleRing approximates a geodesic circle as a closed ring of n vertices.
// Ring points are (lon, lat) as GeoJSON expects.
func CircleRing(lat, lon, radiusMeters float64, n int) orb.Ring {
	if n < 3 {
		n = 3
	}
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		bearing := float64(i) * 360.0 / float64(n)
		plat, plon := Destination(lat, lon, bearing, radiusMeters)
		ring = append(ring, orb.Point{plon, plat})
	}
	ring = append(ring, ring[0])
	return ring
}
