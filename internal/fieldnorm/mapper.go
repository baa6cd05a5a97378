// Package fieldnorm maps arbitrary spreadsheet headers to canonical contact
// fields and provides the comparison-ready normal forms (digits-only phone,
// lower-cased email) used for duplicate matching. Everything here is a pure
// function; the same rules apply at parse time and at match time.
package fieldnorm

import "strings"

// CanonicalField is a normalized field name used across all import sources.
type CanonicalField string

const (
	FieldName     CanonicalField = "full_name"
	FieldPhone    CanonicalField = "phone"
	FieldEmail    CanonicalField = "email"
	FieldCompany  CanonicalField = "company"
	FieldJobTitle CanonicalField = "job_title"
)

// headerAliases maps lowercase header names to canonical fields.
// When multiple raw headers mean the same thing, they all map here.
var headerAliases = map[string]CanonicalField{
	// Full name
	"name":         FieldName,
	"full name":    FieldName,
	"fullname":     FieldName,
	"full_name":    FieldName,
	"contact name": FieldName,
	"contact":      FieldName,
	"nama":         FieldName,
	"nama lengkap": FieldName,

	// Phone
	"phone":        FieldPhone,
	"phone number": FieldPhone,
	"phonenumber":  FieldPhone,
	"phone_number": FieldPhone,
	"mobile":       FieldPhone,
	"telephone":    FieldPhone,
	"tel":          FieldPhone,
	"whatsapp":     FieldPhone,
	"wa":           FieldPhone,
	"hp":           FieldPhone,
	"no hp":        FieldPhone,
	"no. hp":       FieldPhone,
	"nomor hp":     FieldPhone,
	"no telepon":   FieldPhone,
	"msisdn":       FieldPhone,

	// Email
	"email":         FieldEmail,
	"e-mail":        FieldEmail,
	"email address": FieldEmail,
	"email_address": FieldEmail,
	"emailaddress":  FieldEmail,
	"mail":          FieldEmail,

	// Company
	"company":      FieldCompany,
	"company name": FieldCompany,
	"company_name": FieldCompany,
	"organization": FieldCompany,
	"organisation": FieldCompany,
	"perusahaan":   FieldCompany,
	"office":       FieldCompany,

	// Job title
	"job title": FieldJobTitle,
	"jobtitle":  FieldJobTitle,
	"job_title": FieldJobTitle,
	"title":     FieldJobTitle,
	"position":  FieldJobTitle,
	"role":      FieldJobTitle,
	"jabatan":   FieldJobTitle,
}

// MapHeader resolves a raw column header to a canonical field. Headers that
// match no field are ignored by callers (the column is dropped, not an error).
func MapHeader(header string) (CanonicalField, bool) {
	normalized := strings.ToLower(strings.TrimSpace(header))
	normalized = strings.Trim(normalized, "\"'")
	field, ok := headerAliases[normalized]
	return field, ok
}
