package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// Destination returns the point reached by travelling distanceMeters from
// (lat, lon) on the initial bearing (degrees clockwise from north).
func Destination(lat, lon, bearingDeg, distanceMeters float64) (float64, float64) {
	angDist := distanceMeters / (earthRadiusKm * 1000)
	theta := toRad(bearingDeg)
	phi1 := toRad(lat)
	lam1 := toRad(lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(angDist) + math.Cos(phi1)*math.Sin(angDist)*math.Cos(theta))
	lam2 := lam1 + math.Atan2(math.Sin(theta)*math.Sin(angDist)*math.Cos(phi1), math.Cos(angDist)-math.Sin(phi1)*math.Sin(phi2))

	lon2 := math.Mod(toDeg(lam2)+540, 360) - 180
	return toDeg(phi2), lon2
}

// DegreesPerPixel is the longitude span of one pixel of a 256px web-mercator tile at zoom.
func DegreesPerPixel(zoom int) float64 {
	return 360.0 / (256.0 * math.Exp2(float64(zoom)))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
