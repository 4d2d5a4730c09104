package datanorm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

type memStore struct {
	records []analyzer.EmailRecord
	files   []string
}

func (m *memStore) InsertRecords(_ context.Context, records []analyzer.EmailRecord, sourceFile string) (int, error) {
	m.records = append(m.records, records...)
	m.files = append(m.files, sourceFile)
	return len(records), nil
}

func TestImportFromReader(t *testing.T) {
	csvData := strings.Join([]string{
		"business_unit,send_date,send_time,open_rate,click_rate",
		"Retail,2026-03-03,10:00,40,5",
		"Retail,2026-03-03,10:00,60%,15%",
		"Media,not-a-date,10:00,50,5",
		"Media,2026-03-06,16:00,10,1",
	}, "\n")

	store := &memStore{}
	imp := NewImporter(store)

	imported, errCount, err := imp.ImportFromReader(context.Background(), strings.NewReader(csvData), "reports/q1.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, imported)
	assert.Equal(t, 1, errCount)
	require.Len(t, store.records, 3)

	first := store.records[0]
	assert.Equal(t, "Tuesday", first.DayOfWeek)
	assert.Equal(t, 10, first.HourOfDay)
	assert.Equal(t, 40.0, first.OpenRate)
}

func TestImportFromReader_BOMHeader(t *testing.T) {
	csvData := "\xEF\xBB\xBFsend_date,open_rate\n2026-03-03,30\n"

	store := &memStore{}
	imported, errCount, err := NewImporter(store).ImportFromReader(context.Background(), strings.NewReader(csvData), "bom.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Zero(t, errCount)
}

func TestImportFromReader_NoDateColumn(t *testing.T) {
	csvData := "campaign_name,open_rate\nSpring Sale,30\n"

	store := &memStore{}
	_, _, err := NewImporter(store).ImportFromReader(context.Background(), strings.NewReader(csvData), "bad.csv")
	assert.Error(t, err)
	assert.Empty(t, store.records)
}

func TestImportFromReader_EmptyFile(t *testing.T) {
	store := &memStore{}
	imported, errCount, err := NewImporter(store).ImportFromReader(context.Background(), strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Zero(t, imported)
	assert.Zero(t, errCount)
}
