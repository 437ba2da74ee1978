package nadlan

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"realcapital/server/internal/models"
)

var epochDateRe = regexp.MustCompile(`/Date\((\d+)`)

// parseDate handles the two date shapes the registry emits:
// "/Date(1700000000000)/" (millisecond epoch) and ISO timestamps.
func parseDate(v any) *time.Time {
	s := asString(v)
	if s == "" {
		return nil
	}

	if m := epochDateRe.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil
		}
		t := time.UnixMilli(ms).UTC()
		return &t
	}

	s = strings.TrimSuffix(s, "Z")
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseTransaction coerces one raw registry record into the canonical
// transaction shape. Every field is coerced independently; missing or
// malformed values default to nil rather than failing the record.
func parseTransaction(raw map[string]any) models.Transaction {
	addr := asString(raw["FULLADRESS"])
	if addr == "" {
		addr = asString(raw["DISPLAYADRESS"])
	}

	propertyType := asString(raw["NEWPROJECTNAME"])
	if propertyType == "" {
		propertyType = asString(raw["TYPE"])
	}

	return models.Transaction{
		Address:        addr,
		DealAmount:     asFloat(raw["DEALAMOUNT"]),
		DealDate:       parseDate(firstNonNil(raw["DEALDATETIME"], raw["DEALDATE"])),
		Rooms:          asFloatPtr(raw["ASSETROOMNUM"]),
		Floor:          asFloorPtr(raw["FLOORNO"]),
		SizeSqm:        asFloatPtr(firstNonNil(raw["DEALAREAMETER"], raw["ASSETAREAMETER"])),
		BuildingYear:   asIntPtr(raw["BUILDINGYEAR"]),
		BuildingFloors: asIntPtr(raw["BUILDINGFLOORS"]),
		DealNature:     asString(raw["DEALNATUREDESCRIPTION"]),
		ProjectName:    asString(raw["PROJECTNAME"]),
		Gush:           asString(raw["GUSH"]),
		Parcel:         asString(raw["PARCEL"]),
		PropertyType:   propertyType,
		TrendNegative:  asBoolPtr(raw["TREND_IS_NEGATIVE"]),
	}
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil && asString(v) != "" {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asFloatPtr(v any) *float64 {
	f := asFloat(v)
	if f == 0 {
		return nil
	}
	return &f
}

// asIntPtr treats zero as "unknown": the registry uses 0/blank on the
// fields this is applied to.
func asIntPtr(v any) *int {
	f := asFloat(v)
	if f == 0 {
		return nil
	}
	i := int(f)
	return &i
}

// asFloorPtr preserves an explicit "0" (ground floor) while still mapping
// blank and non-numeric values ("קרקע" labels included) to nil.
func asFloorPtr(v any) *int {
	s := asString(v)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	i := int(f)
	return &i
}

func asBoolPtr(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}
