package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		name string
		line string
		want rune
	}{
		{"semicolons win over zero commas", "Name;Phone;Email", ';'},
		{"commas default", "Name,Phone,Email", ','},
		{"tabs win over zero commas", "Name\tPhone\tEmail", '\t'},
		{"equal comma and semicolon picks comma", "a,b;c,d;e", ','},
		{"semicolon needs to beat tab too", "a;b\tc\td", '\t'},
		{"quoted delimiters do not count", `"a;b;c",d,e`, ','},
		{"no delimiters at all", "Name", ','},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, detectDelimiter(tc.line))
		})
	}
}

func TestSplitFields(t *testing.T) {
	cases := []struct {
		line  string
		delim rune
		want  []string
	}{
		{`a,b,c`, ',', []string{"a", "b", "c"}},
		{`"a,b",c`, ',', []string{"a,b", "c"}},
		{`"say ""hi""",x`, ',', []string{`say "hi"`, "x"}},
		{`a;;b`, ';', []string{"a", "", "b"}},
		{`trailing,`, ',', []string{"trailing", ""}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, splitFields(tc.line, tc.delim), "line %q", tc.line)
	}
}

func TestParseDelimited_Basic(t *testing.T) {
	csv := "Name,Phone,Email\nJane Doe,6281234567890,jane@example.com\nJohn Roe,6280000000001,\n"
	got, err := Parse([]byte(csv), "contacts.csv")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jane Doe", got[0].FullName)
	assert.Equal(t, "6281234567890", got[0].Phone)
	assert.Equal(t, "jane@example.com", got[0].Email)
	assert.Equal(t, "John Roe", got[1].FullName)
}

func TestParseDelimited_SemicolonHeader(t *testing.T) {
	csv := "Name;Phone;Email\nJane Doe;6281234567890;jane@example.com\n"
	got, err := Parse([]byte(csv), ".csv")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "6281234567890", got[0].Phone)
}

func TestParseDelimited_DropsIncompleteRows(t *testing.T) {
	// Second data row has neither name nor phone: dropped silently.
	csv := "Name,Phone,Company\nJane,123,Acme\n,,OrphanCo\nJohn,456,\n"
	got, err := Parse([]byte(csv), "csv")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jane", got[0].FullName)
	assert.Equal(t, "John", got[1].FullName)
}

func TestParseDelimited_BlankLinesAndBOM(t *testing.T) {
	csv := "\xEF\xBB\xBFName,Phone\r\n\r\nJane,123\r\n\r\n"
	got, err := Parse([]byte(csv), "csv")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane", got[0].FullName)
}

func TestParseDelimited_MissingRequiredColumns(t *testing.T) {
	csv := "Email,Company\njane@example.com,Acme\n"
	_, err := Parse([]byte(csv), "csv")
	require.Error(t, err)
	assert.Equal(t, ReasonMissingRequiredColumns, ReasonOf(err))
}

func TestParseDelimited_EmptyFile(t *testing.T) {
	_, err := Parse([]byte(""), "csv")
	require.Error(t, err)
	assert.Equal(t, ReasonEmptyFile, ReasonOf(err))

	// Header only, no data rows
	_, err = Parse([]byte("Name,Phone\n"), "csv")
	require.Error(t, err)
	assert.Equal(t, ReasonEmptyFile, ReasonOf(err))

	// All rows dropped as incomplete
	_, err = Parse([]byte("Name,Phone\n,\n"), "csv")
	require.Error(t, err)
	assert.Equal(t, ReasonEmptyFile, ReasonOf(err))
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("x"), "contacts.pdf")
	require.Error(t, err)
	assert.Equal(t, ReasonUnsupportedFormat, ReasonOf(err))
}

func TestParse_SizeExceeded(t *testing.T) {
	big := make([]byte, MaxFileBytes+1)
	_, err := Parse(big, "csv")
	require.Error(t, err)
	assert.Equal(t, ReasonSizeExceeded, ReasonOf(err))
}

func TestParseDelimited_DuplicateHeaderFirstColumnWins(t *testing.T) {
	csv := "Name,Nama,Phone\nFirst,Second,123\n"
	got, err := Parse([]byte(csv), "csv")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "First", got[0].FullName)
}
