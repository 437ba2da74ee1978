package config

// CityCodes maps Hebrew city names to the marketplace feed's location
// codes (reverse-engineered from listing URLs). Cities missing from the
// map simply omit the city filter upstream.
var CityCodes = map[string]string{
	"תל אביב":    "5000",
	"ירושלים":    "3000",
	"חיפה":       "4000",
	"רמת גן":     "8600",
	"הרצליה":     "6400",
	"רעננה":      "8700",
	"כפר סבא":    "6900",
	"נתניה":      "7400",
	"ראשון לציון": "8300",
	"פתח תקווה":  "7900",
	"אשדוד":      "70",
	"באר שבע":    "9000",
	"הוד השרון":  "6500",
	"רמת השרון":  "8800",
	"גבעתיים":    "6300",
	"בת ים":      "2100",
	"חולון":      "6600",
	"אשקלון":     "7100",
	"מודיעין":    "1200",
	"נהריה":      "7300",
	"עכו":        "4100",
}

// PropertyTypeCodes maps Hebrew property-type labels to feed type codes.
var PropertyTypeCodes = map[string]string{
	"דירה":      "1",
	"דירת גן":   "3",
	"פנטהאוז":   "4",
	"בית פרטי":  "5",
	"קוטג׳":     "6",
	"דופלקס":    "7",
	"מגרש":      "11",
	"טריפלקס":   "25",
	"דו-משפחתי": "29",
}

// CityNames returns the list of cities with a known feed code.
func CityNames() []string {
	names := make([]string, 0, len(CityCodes))
	for name := range CityCodes {
		names = append(names, name)
	}
	return names
}
