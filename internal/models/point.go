package models

// Point represents a labeled geographical point in decimal degrees.
type Point struct {
	Lat   float64 `json:"lat"`   // Lat is the latitude of the point.
	Lon   float64 `json:"lon"`   // Lon is the longitude of the point.
	Label string  `json:"label"` // Label identifies who or what the point belongs to.
}
