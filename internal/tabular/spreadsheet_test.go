package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseSpreadsheet_Basic(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Name", "Phone", "Email", "Company"},
		{"Jane Doe", "6281234567890", "jane@example.com", "Acme"},
		{"John Roe", "6280000000001", "", ""},
	})

	got, err := Parse(data, "contacts.xlsx")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jane Doe", got[0].FullName)
	assert.Equal(t, "6281234567890", got[0].Phone)
	assert.Equal(t, "Acme", got[0].Company)
	assert.Equal(t, "John Roe", got[1].FullName)
}

func TestParseSpreadsheet_DropsIncompleteRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Name", "Phone"},
		{"Jane", "123"},
		{"", ""},
	})

	got, err := Parse(data, "xlsx")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestParseSpreadsheet_MissingRequiredColumns(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Email", "Company"},
		{"jane@example.com", "Acme"},
	})

	_, err := Parse(data, "xlsx")
	require.Error(t, err)
	assert.Equal(t, ReasonMissingRequiredColumns, ReasonOf(err))
}

func TestParseSpreadsheet_EmptySheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = Parse(buf.Bytes(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, ReasonEmptyFile, ReasonOf(err))
}

func TestParseSpreadsheet_CorruptFormat(t *testing.T) {
	_, err := Parse([]byte("this is not a zip archive"), "broken.xlsx")
	require.Error(t, err)
	assert.Equal(t, ReasonCorruptFormat, ReasonOf(err))
}
