package parser

import (
	"math"
	"strings"

	"github.com/UnknownOlympus/pinmap/internal/models"
)

// Accepted column name spellings, searched case-insensitively in order.
var (
	latAliases   = []string{"lat", "Latitude", "y"}
	lonAliases   = []string{"lon", "lng", "Longitude", "x"}
	labelAliases = []string{"user", "username", "name", "label", "Analyst"}
)

// NormalizeRows converts raw CSV rows into validated points, preserving the
// relative input order. Rows missing a required column, containing a
// malformed coordinate, or carrying a blank label are dropped. The second
// return value is the number of dropped rows; reporting it is left to the
// caller so the count stays testable.
func NormalizeRows(rows []map[string]string) ([]models.Point, int) {
	points := make([]models.Point, 0, len(rows))
	dropped := 0

	for _, row := range rows {
		latCol, latOK := FindHeader(row, latAliases)
		lonCol, lonOK := FindHeader(row, lonAliases)
		labelCol, labelOK := FindHeader(row, labelAliases)
		if !latOK || !lonOK || !labelOK {
			dropped++
			continue
		}

		lat, latErr := ParseCoordinate(row[latCol])
		lon, lonErr := ParseCoordinate(row[lonCol])
		label := strings.TrimSpace(row[labelCol])
		if latErr != nil || lonErr != nil || label == "" {
			dropped++
			continue
		}
		if !isFinite(lat) || !isFinite(lon) {
			dropped++
			continue
		}

		points = append(points, models.Point{Lat: lat, Lon: lon, Label: label})
	}

	return points, dropped
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
