package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funding-cli/internal/fetcher"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.xlsx")
	require.NoError(t, WriteXLSX(path, sampleCompanies()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, err := fetcher.ReadXLSX(data, fetcher.XLSXOptions{SheetName: SheetName})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Company", rows[0][0])
	assert.Equal(t, "Acme Robotics Inc", rows[1][0])
	assert.Equal(t, "https://acme.ai", rows[1][1])
	assert.Equal(t, "12500000", rows[1][2])
	assert.Equal(t, "Sequoia, a16z", rows[1][5])
	assert.Equal(t, "SEC Form D, TechCrunch", rows[1][9])
	assert.Equal(t, "Globex", rows[2][0])
	assert.Equal(t, "Unknown", rows[2][4])
}

func TestWriteXLSX_BadPath(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "missing", "out.xlsx"), nil)
	require.Error(t, err)
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "", joinList(nil))
	assert.Equal(t, "a, c", joinList([]string{"a", "", "c"}))
}
