package tabular

import (
	"strings"

	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/fieldnorm"
)

// detectDelimiter inspects a header line and picks the field delimiter.
// Only unescaped (outside double quotes) occurrences count. Comma is the
// default; semicolon or tab wins only when its count is strictly greater
// than the comma count AND at least the other candidate's count. A line
// with equal comma and semicolon counts therefore always picks comma.
func detectDelimiter(line string) rune {
	var commas, semis, tabs int
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case r == ',':
			commas++
		case r == ';':
			semis++
		case r == '\t':
			tabs++
		}
	}

	if semis > commas && semis >= tabs {
		return ';'
	}
	if tabs > commas && tabs >= semis {
		return '\t'
	}
	return ','
}

// splitFields splits one line on the delimiter, honoring double-quote
// enclosure with "" as an escaped quote. Delimiters inside quotes are
// literal text.
func splitFields(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

// splitLines breaks input into lines on any line-break convention and
// discards blank lines.
func splitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")
	var lines []string
	for _, l := range strings.Split(data, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// parseDelimited decodes CSV-style text. The first row is headers, mapped
// through fieldnorm; rows lacking both a name and a phone are silently
// dropped.
func parseDelimited(data []byte) ([]domain.CandidateContact, error) {
	lines := splitLines(string(stripBOM(data)))
	if len(lines) == 0 {
		return nil, parseErrorf(ReasonEmptyFile, "file contains no rows")
	}

	delim := detectDelimiter(lines[0])
	header := splitFields(lines[0], delim)

	// column index -> canonical field; first column for a field wins
	colFields := make(map[int]fieldnorm.CanonicalField, len(header))
	seen := make(map[fieldnorm.CanonicalField]bool, len(header))
	for i, h := range header {
		field, ok := fieldnorm.MapHeader(h)
		if !ok || seen[field] {
			continue
		}
		colFields[i] = field
		seen[field] = true
	}

	if !seen[fieldnorm.FieldName] && !seen[fieldnorm.FieldPhone] {
		return nil, parseErrorf(ReasonMissingRequiredColumns,
			"no column maps to name or phone in header: %s", strings.Join(header, ", "))
	}

	var out []domain.CandidateContact
	for _, line := range lines[1:] {
		row := splitFields(line, delim)
		cand := mapRow(row, colFields)
		if cand.IsBlank() {
			continue
		}
		out = append(out, cand)
	}

	if len(out) == 0 {
		return nil, parseErrorf(ReasonEmptyFile, "no usable data rows after mapping")
	}
	return out, nil
}

// mapRow projects one raw row through the resolved column mapping.
func mapRow(row []string, colFields map[int]fieldnorm.CanonicalField) domain.CandidateContact {
	cand := domain.CandidateContact{
		Source:  domain.SourceImport,
		Consent: domain.ConsentUnknown,
	}
	for i, val := range row {
		field, ok := colFields[i]
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		switch field {
		case fieldnorm.FieldName:
			cand.FullName = fieldnorm.NormalizeName(val)
		case fieldnorm.FieldPhone:
			cand.Phone = val
		case fieldnorm.FieldEmail:
			cand.Email = fieldnorm.NormalizeEmail(val)
		case fieldnorm.FieldCompany:
			cand.Company = val
		case fieldnorm.FieldJobTitle:
			cand.JobTitle = val
		}
	}
	return cand
}

// stripBOM removes a UTF-8 byte-order mark if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
