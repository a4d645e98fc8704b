package columns

import "strings"

// SplitUnit separates a header of the form "Name (unit)" or "Name [unit]"
// into its trimmed base name and unit. A header without a trailing
// bracketed suffix returns an empty unit.
func SplitUnit(header string) (base, unit string) {
	h := strings.TrimSpace(header)
	for _, pair := range [][2]byte{{'(', ')'}, {'[', ']'}} {
		if !strings.HasSuffix(h, string(pair[1])) {
			continue
		}
		open := strings.LastIndexByte(h, pair[0])
		if open < 0 {
			continue
		}
		return strings.TrimSpace(h[:open]), strings.TrimSpace(h[open+1 : len(h)-1])
	}
	return h, ""
}

// Unit returns the unit suffix of header, or fallback when there is none.
func Unit(header, fallback string) string {
	if _, u := SplitUnit(header); u != "" {
		return u
	}
	return fallback
}
