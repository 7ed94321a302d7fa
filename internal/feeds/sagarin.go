// Package feeds parses the inputs of the three ingestion feeds: the Sagarin
// ratings page and the schedule, remaining-teams and pick-type YAML files.
package feeds

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoHomeAdvantage is returned when the page has no HOME ADVANTAGE line.
	ErrNoHomeAdvantage = errors.New("home advantage cannot be parsed")
	// ErrNoRatings is returned when the page has no team lines.
	ErrNoRatings = errors.New("ratings cannot be parsed")
)

// The home advantage uses the POINTS column; team ratings use the RATING column.
var (
	homeAdvRE = regexp.MustCompile(`HOME ADVANTAGE=.*?\[<font color="#0000ff">\s*([\-0-9.]+)`)
	ratingsRE = regexp.MustCompile(`<font color="#000000">\s+\d+\s+(.*?)\s+A+\s*=<.*?<font color="#9900ff">\s*([\-0-9.]+)`)
)

// SagarinPage is the parsed content of one ratings page.
type SagarinPage struct {
	HomeAdvantage float64
	Ratings       map[string]float64 // display name -> rating
}

// ParseSagarin extracts the home advantage and every team rating from body.
func ParseSagarin(body string) (*SagarinPage, error) {
	m := homeAdvRE.FindStringSubmatch(body)
	if m == nil {
		return nil, ErrNoHomeAdvantage
	}
	homeAdv, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, fmt.Errorf("home advantage %q: %w", m[1], err)
	}

	matches := ratingsRE.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil, ErrNoRatings
	}

	ratings := make(map[string]float64, len(matches))
	for _, match := range matches {
		name := match[1]
		rating, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			return nil, fmt.Errorf("rating %q for %q: %w", match[2], name, err)
		}
		if _, dup := ratings[name]; dup {
			log.Warn().Str("team", name).Msg("Team listed twice on ratings page, keeping the later line")
		}
		ratings[name] = rating
	}

	return &SagarinPage{HomeAdvantage: homeAdv, Ratings: ratings}, nil
}
