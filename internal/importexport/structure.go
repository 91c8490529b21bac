package importexport

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// similarityThreshold is the minimum levenshtein similarity ratio for a
// header to be suggested as a likely match for an expected field.
const similarityThreshold = 0.6

// StructureReport is the result of checking an uploaded file's headers
// against the expected column set for a record kind.
type StructureReport struct {
	Valid       bool              `json:"valid"`
	Missing     []string          `json:"missing_required"`
	Extra       []string          `json:"unexpected"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
}

// ValidateStructure compares headers against the expected columns for kind:
// required columns that are absent are reported as missing, unknown columns
// as extra, and each extra column that plausibly matches a missing field
// (by normalized containment or levenshtein similarity) produces a
// suggestion.
func ValidateStructure(headers []string, kind Kind) StructureReport {
	report := StructureReport{
		Valid:       true,
		Missing:     []string{},
		Extra:       []string{},
		Suggestions: map[string]string{},
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}

	known := make(map[string]bool)
	for _, f := range FieldsFor(kind) {
		known[strings.ToLower(f.Header)] = true
		if f.Required && !present[strings.ToLower(f.Header)] {
			report.Valid = false
			report.Missing = append(report.Missing, f.Header)
		}
	}

	for _, h := range headers {
		h = strings.TrimSpace(h)
		if known[strings.ToLower(h)] {
			continue
		}
		report.Extra = append(report.Extra, h)
		for _, want := range report.Missing {
			if headersAlike(h, want) {
				report.Suggestions[h] = want
				break
			}
		}
	}

	return report
}

// headersAlike reports whether two header names plausibly refer to the same
// field: either one's normalized form contains the other, or their
// levenshtein similarity exceeds the threshold.
func headersAlike(a, b string) bool {
	na, nb := normalizeHeader(a), normalizeHeader(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return similarity(na, nb) > similarityThreshold
}

// normalizeHeader lowercases a header and strips punctuation and whitespace.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity is 1 - distance/maxlen, in [0, 1].
func similarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
