package tabular

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/contact-engine/internal/domain"
	"github.com/ignite/contact-engine/internal/fieldnorm"
)

// parseSpreadsheet decodes the first sheet of an xlsx workbook. Missing
// cells default to the empty string; the same per-row mapping and
// drop-if-incomplete rule as the delimited path applies.
func parseSpreadsheet(data []byte) ([]domain.CandidateContact, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, parseErrorf(ReasonCorruptFormat, "cannot open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErrorf(ReasonEmptyFile, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, parseErrorf(ReasonCorruptFormat, "cannot read sheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, parseErrorf(ReasonEmptyFile, "sheet %q has no declared extent", sheets[0])
	}

	header := rows[0]
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
	for _, row := range rows[1:] {
		// excelize trims trailing empty cells; pad to header width
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
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
