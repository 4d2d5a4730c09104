package datanorm

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

// RecordStore persists normalized campaign records.
type RecordStore interface {
	InsertRecords(ctx context.Context, records []analyzer.EmailRecord, sourceFile string) (int, error)
}

// Importer streams campaign-report CSVs into the record store.
type Importer struct {
	store RecordStore
}

// NewImporter creates an Importer backed by the given store.
func NewImporter(store RecordStore) *Importer {
	return &Importer{store: store}
}

const importBatchSize = 500

// ImportFromReader reads a CSV stream, maps columns to canonical fields,
// normalizes values, and persists records. Rows with unparseable send dates
// are dropped and counted as errors. Returns (imported, errors, err).
func (imp *Importer) ImportFromReader(ctx context.Context, r io.Reader, sourceFile string) (int, int, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("read header: %w", err)
	}

	mapping := MapColumns(header)
	if mapping == nil {
		return 0, 0, fmt.Errorf("no send-date column detected in header: %v", header)
	}

	var batch []analyzer.EmailRecord
	imported, errCount := 0, 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errCount++
			continue
		}

		rec, err := NormalizeRow(row, mapping)
		if err != nil {
			errCount++
			continue
		}
		batch = append(batch, rec)

		if len(batch) >= importBatchSize {
			n, e := imp.flushBatch(ctx, batch, sourceFile)
			imported += n
			errCount += e
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		n, e := imp.flushBatch(ctx, batch, sourceFile)
		imported += n
		errCount += e
	}

	return imported, errCount, nil
}

func (imp *Importer) flushBatch(ctx context.Context, batch []analyzer.EmailRecord, sourceFile string) (int, int) {
	n, err := imp.store.InsertRecords(ctx, batch, sourceFile)
	if err != nil {
		log.Printf("[datanorm] insert batch from %s: %v", sourceFile, err)
		return n, len(batch) - n
	}
	return n, 0
}

// stripBOM removes a UTF-8 byte-order mark, which several ESP exports
// prepend to the header row.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
