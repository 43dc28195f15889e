package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Common errors for coordinate parsing.
var (
	// ErrEmptyCoordinate is returned when the value is empty after trimming.
	ErrEmptyCoordinate = errors.New("coordinate value is empty")
	// ErrMalformedCoordinate is returned when the value cannot be parsed
	// as a decimal degree or a degrees-minutes-seconds expression.
	ErrMalformedCoordinate = errors.New("malformed coordinate value")
)

// dmsPunctuation lists the degree, minute and second symbols that mark a
// value as DMS notation. Both the typographic and the keyboard variants
// show up in real exports.
const dmsPunctuation = "°º'′’\"″”"

const (
	minutesPerDegree = 60
	secondsPerDegree = 3600
	maxDMSTokens     = 3
)

// ParseCoordinate converts a single raw coordinate cell into decimal degrees.
//
// Accepted forms:
//   - plain decimal numbers ("28.6139", "-77.209")
//   - decimal numbers with a comma separator ("28,6139")
//   - DMS expressions with optional hemisphere letter (`28°36'50"N`, "77 12 30 W")
//
// A hemisphere letter always overrides a numeric sign: S and W force the
// result negative, N and E force it positive. Without a letter, the sign of
// the degrees token is preserved. No range validation is performed; the
// caller decides whether out-of-range values are acceptable.
func ParseCoordinate(value string) (float64, error) {
	val := strings.TrimSpace(value)
	if val == "" {
		return 0, ErrEmptyCoordinate
	}

	// Support locales which write the decimal separator as a comma.
	val = strings.ReplaceAll(val, ",", ".")

	// A value is DMS when it carries DMS punctuation, a hemisphere letter,
	// or several whitespace-separated tokens ("77 12 30"). Anything else is
	// a plain decimal number.
	hemi := firstHemisphere(val)
	if !strings.ContainsAny(val, dmsPunctuation) && hemi == 0 && len(strings.Fields(val)) == 1 {
		num, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, value)
		}
		return num, nil
	}

	return parseDMS(val, hemi, value)
}

// parseDMS handles the degrees-minutes-seconds path. Hemisphere letters are
// stripped, punctuation becomes whitespace, and the remaining tokens are
// read as degrees, minutes and seconds in that order.
func parseDMS(val string, hemi rune, original string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case isHemisphere(r):
			return -1
		case strings.ContainsRune(dmsPunctuation, r):
			return ' '
		default:
			return r
		}
	}, val)

	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 || len(tokens) > maxDMSTokens {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, original)
	}

	parts := make([]float64, maxDMSTokens)
	for idx, token := range tokens {
		num, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, original)
		}
		parts[idx] = num
	}

	degrees, minutes, seconds := parts[0], parts[1], parts[2]
	decimal := math.Abs(degrees) + minutes/minutesPerDegree + seconds/secondsPerDegree

	switch {
	case hemi == 'S' || hemi == 'W':
		decimal = -decimal
	case hemi == 'N' || hemi == 'E':
		// Positive regardless of any numeric sign.
	case math.Signbit(degrees):
		decimal = -decimal
	}

	return decimal, nil
}

// firstHemisphere returns the first hemisphere letter found in the value,
// normalized to upper case, or 0 if none is present.
func firstHemisphere(val string) rune {
	for _, r := range val {
		if isHemisphere(r) {
			switch r {
			case 'n', 'N':
				return 'N'
			case 's', 'S':
				return 'S'
			case 'e', 'E':
				return 'E'
			case 'w', 'W':
				return 'W'
			}
		}
	}
	return 0
}

func isHemisphere(r rune) bool {
	switch r {
	case 'N', 'S', 'E', 'W', 'n', 's', 'e', 'w':
		return true
	default:
		return false
	}
}
