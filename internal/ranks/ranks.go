package ranks

import (
	"errors"
	"strings"
)

// ErrInvalidRank is returned when a rank code is not present in the tier table.
var ErrInvalidRank = errors.New("invalid rank")

// tierPoints maps a rank code to its skill point value. Half tiers sit between
// the main tiers, which is why the spacing is uneven.
var tierPoints = map[string]float64{
	"I":  1.0,
	"IB": 2.0,
	"B":  3.0,
	"BS": 4.0,
	"S":  5.0,
	"SG": 6.5,
	"G":  8.0,
	"GP": 9.5,
	"P":  11.0,
	"PE": 13.0,
	"E":  15.0,
	"ED": 17.0,
	"D":  19.0,
	"DM": 21.5,
	"M":  24.0,
	"GM": 27.0,
	"C":  30.0,
}

// roleToRank maps a chat-platform role name to a rank code.
var roleToRank = map[string]string{
	"Iron":             "I",
	"Iron-Bronze":      "IB",
	"Bronze":           "B",
	"Bronze-Silver":    "BS",
	"Silver":           "S",
	"Silver-Gold":      "SG",
	"Gold":             "G",
	"Gold-Platinum":    "GP",
	"Platinum":         "P",
	"Platinum-Emerald": "PE",
	"Emerald":          "E",
	"Emerald-Diamond":  "ED",
	"Diamond":          "D",
	"Diamond-Masters":  "DM",
	"Master":           "M",
	"Grandmaster":      "GM",
	"Challenger":       "C",
}

// ordered holds the rank codes from lowest to highest tier for display purposes.
var ordered = []string{"I", "IB", "B", "BS", "S", "SG", "G", "GP", "P", "PE", "E", "ED", "D", "DM", "M", "GM", "C"}

// Points returns the point value for a rank code. The code is normalized to
// upper case before lookup.
func Points(code string) (float64, error) {
	points, ok := tierPoints[Normalize(code)]
	if !ok {
		return 0, ErrInvalidRank
	}
	return points, nil
}

// Normalize upper-cases a rank code for lookup and storage.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether a rank code exists in the tier table.
func IsValid(code string) bool {
	_, ok := tierPoints[Normalize(code)]
	return ok
}

// FromRole returns the rank code for a chat-platform role name, if mapped.
func FromRole(roleName string) (string, bool) {
	code, ok := roleToRank[roleName]
	return code, ok
}

// All returns the rank codes with their point values, ordered from the lowest
// tier to the highest.
func All() []Tier {
	tiers := make([]Tier, 0, len(ordered))
	for _, code := range ordered {
		tiers = append(tiers, Tier{Code: code, Points: tierPoints[code]})
	}
	return tiers
}

// Tier is a single entry of the rank table.
type Tier struct {
	Code   string  `json:"code"`
	Points float64 `json:"points"`
}
