// Package tabular decodes delimited text and xlsx workbooks into candidate
// contacts. Delimiter detection, quoted-field handling, and header mapping
// follow fixed rules so that the same input always yields the same rows.
package tabular

import (
	"path/filepath"
	"strings"

	"github.com/ignite/contact-engine/internal/domain"
)

// MaxFileBytes is the hard ceiling for any import file.
const MaxFileBytes = 10 << 20 // 10 MiB

// Parse decodes an import file into candidate contacts. nameOrExt may be a
// filename, an extension with a dot, or a bare extension; only csv and xlsx
// are supported. All failures are terminal for this parse attempt and carry
// a human-readable reason.
func Parse(data []byte, nameOrExt string) ([]domain.CandidateContact, error) {
	if len(data) > MaxFileBytes {
		return nil, parseErrorf(ReasonSizeExceeded,
			"file is %d bytes, limit is %d", len(data), MaxFileBytes)
	}

	switch normalizeExt(nameOrExt) {
	case "csv":
		return parseDelimited(data)
	case "xlsx":
		return parseSpreadsheet(data)
	default:
		return nil, parseErrorf(ReasonUnsupportedFormat,
			"unsupported file type %q, expected csv or xlsx", nameOrExt)
	}
}

// SupportedExt reports whether the filename or extension is importable.
func SupportedExt(nameOrExt string) bool {
	ext := normalizeExt(nameOrExt)
	return ext == "csv" || ext == "xlsx"
}

func normalizeExt(nameOrExt string) string {
	s := strings.ToLower(strings.TrimSpace(nameOrExt))
	if ext := filepath.Ext(s); ext != "" {
		s = ext
	}
	return strings.TrimPrefix(s, ".")
}
