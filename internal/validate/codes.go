package validate

// Code identifies a single field-level validation failure. Codes group into
// families by first digit: E1xx transaction id, E2xx amount, E3xx timestamp,
// E4xx country.
type Code string

const (
	CodeIDFormat  Code = "E101" // pattern mismatch
	CodeIDDup     Code = "E102" // declared; duplicates are not checked across rows
	CodeIDMissing Code = "E103"

	CodeAmountFormat    Code = "E201" // not parseable as a number
	CodeAmountRange     Code = "E202" // outside [0.01, 999999999.99]
	CodeAmountNotPos    Code = "E203" // zero or negative
	CodeAmountMissing   Code = "E204"
	CodeAmountPrecision Code = "E205" // more than 2 fractional digits

	CodeTimestampFormat     Code = "E301"
	CodeTimestampComponents Code = "E302" // declared; folded into E301 by layout parsing
	CodeTimestampFuture     Code = "E303" // after 2030-12-31
	CodeTimestampPreEpoch   Code = "E304" // before 1970-01-01
	CodeTimestampMissing    Code = "E305"

	CodeCountryFormat  Code = "E401" // not two uppercase letters
	CodeCountryUnknown Code = "E402" // well-formed but not in the recognized set
	CodeCountryMissing Code = "E404"
)

// catalog maps every code to its fixed description. Initialized once,
// never mutated.
var catalog = map[Code]string{
	CodeIDFormat:            "Invalid transaction_id format",
	CodeIDDup:               "Duplicate transaction_id",
	CodeIDMissing:           "transaction_id null or empty",
	CodeAmountFormat:        "Invalid amount format",
	CodeAmountRange:         "Amount out of range",
	CodeAmountNotPos:        "Amount is zero or negative",
	CodeAmountMissing:       "Amount null or empty",
	CodeAmountPrecision:     "Excessive decimal precision",
	CodeTimestampFormat:     "Invalid timestamp format",
	CodeTimestampComponents: "Invalid date/time components",
	CodeTimestampFuture:     "Future timestamp",
	CodeTimestampPreEpoch:   "Timestamp before epoch",
	CodeTimestampMissing:    "Timestamp null or empty",
	CodeCountryFormat:       "Invalid country code format",
	CodeCountryUnknown:      "Country code not recognized",
	CodeCountryMissing:      "Country field null or empty",
}

// Describe returns the fixed human-readable description for c, or "" when c
// is not in the catalog.
func Describe(c Code) string { return catalog[c] }

// Known reports whether c is a catalog code.
func Known(c Code) bool {
	_, ok := catalog[c]
	return ok
}

// Field returns the canonical column a code family covers, or "" for an
// unrecognized code.
func (c Code) Field() string {
	if len(c) != 4 || c[0] != 'E' {
		return ""
	}
	switch c[1] {
	case '1':
		return "transaction_id"
	case '2':
		return "amount"
	case '3':
		return "timestamp"
	case '4':
		return "country"
	}
	return ""
}
