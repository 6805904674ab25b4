package validate

// recognizedCountries is the fixed allow-list of ISO 3166-1 alpha-2 codes the
// pipeline accepts. Initialized once at startup and shared by immutable
// reference across concurrent row checks.
var recognizedCountries = map[string]struct{}{
	"US": {}, "GB": {}, "DE": {}, "FR": {}, "JP": {},
	"CN": {}, "IN": {}, "CA": {}, "AU": {}, "BR": {},
	"MX": {}, "ES": {}, "IT": {}, "NL": {}, "SE": {},
	"CH": {}, "KR": {}, "SG": {}, "HK": {}, "NZ": {},
}

// CountryRecognized reports whether code is in the fixed allow-list. The
// comparison is exact; callers are expected to pass an already-trimmed,
// uppercase candidate.
func CountryRecognized(code string) bool {
	_, ok := recognizedCountries[code]
	return ok
}
