package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseImportReaderCSV(t *testing.T) {
	content := "slugs,comment\nalpha,first\n beta ,second\n,\ngamma\n"

	rows, err := ParseImportReader("slugs.CSV", strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[0]["slugs"])
	assert.Equal(t, "beta", rows[1]["slugs"])
	assert.Equal(t, "gamma", rows[2]["slugs"])
	assert.Equal(t, "", rows[2]["comment"])
}

func TestParseImportReaderXLSX(t *testing.T) {
	workbook := excelize.NewFile()
	defer workbook.Close()
	require.NoError(t, workbook.SetCellValue("Sheet1", "A1", "slugs"))
	require.NoError(t, workbook.SetCellValue("Sheet1", "A2", "one"))
	require.NoError(t, workbook.SetCellValue("Sheet1", "A3", "two"))
	buffer, err := workbook.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ParseImportReader("slugs.xlsx", buffer)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"slugs": "one"}, {"slugs": "two"}}, rows)
}

func TestParseImportReaderUnsupported(t *testing.T) {
	_, err := ParseImportReader("slugs.txt", strings.NewReader("slugs\nx"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestParseImportFileMissing(t *testing.T) {
	_, err := ParseImportFile(nil)
	assert.ErrorIs(t, err, ErrNoFileUploaded)
}

func TestParseImportReaderHeaderOnly(t *testing.T) {
	rows, err := ParseImportReader("slugs.csv", strings.NewReader("slugs\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
