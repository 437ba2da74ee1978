// Package address provides purely lexical parsing of free-text Hebrew
// property addresses. No validation against real-world data is performed.
package address

import (
	"regexp"
	"strings"
)

// Parts are the components extracted from a free-text address.
type Parts struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
}

var (
	streetPrefixRe = regexp.MustCompile(`^רחוב\s+`)
	houseNumberRe  = regexp.MustCompile(`\d+`)
)

// Parse splits a free-text address into street, house number, city and
// neighborhood.
//
//	"הרצל 15, תל אביב"        -> street "הרצל", number "15", city "תל אביב"
//	"רחוב ביאליק 7, רמת גן"   -> street "ביאליק", number "7", city "רמת גן"
//
// The last comma segment is the city; with exactly three segments the
// middle one is the neighborhood. Without commas the whole string is the
// street. The first embedded digit run in the street segment is the house
// number.
func Parse(s string) Parts {
	var parts Parts

	clean := streetPrefixRe.ReplaceAllString(strings.TrimSpace(s), "")

	segments := strings.Split(clean, ",")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	var streetPart string
	if len(segments) >= 2 {
		parts.City = segments[len(segments)-1]
		streetPart = segments[0]
	} else {
		streetPart = segments[0]
	}

	if loc := houseNumberRe.FindStringIndex(streetPart); loc != nil {
		parts.Number = streetPart[loc[0]:loc[1]]
		parts.Street = strings.TrimSpace(streetPart[:loc[0]])
	} else {
		parts.Street = streetPart
	}

	if len(segments) == 3 {
		parts.Neighborhood = segments[1]
	}

	return parts
}
