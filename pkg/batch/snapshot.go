package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
)

const (
	snapshotPrefix = "dados_medicoes_nh3_"
	snapshotStamp  = "20060102_150405"
	snapshotSheet  = "medicoes"
)

// utf8BOM lets spreadsheet programs detect the encoding of the CSV
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Snapshot lists the interchange files written for a run
type Snapshot struct {
	CSV  string
	XLSX string
	Rows int
}

// SnapshotName returns the CSV file name for a run started at t
func SnapshotName(t time.Time) string {
	return snapshotPrefix + t.Format(snapshotStamp) + ".csv"
}

// WriteSnapshot writes the full, unfiltered dataset to a timestamped CSV
// in dir and, when withXLSX is set, an XLSX twin next to it
func WriteSnapshot(dir string, ds measure.Dataset, withXLSX bool) (Snapshot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	snap := Snapshot{
		CSV:  filepath.Join(dir, SnapshotName(ds.StartedAt)),
		Rows: ds.Len(),
	}
	if err := writeCSV(snap.CSV, ds.Records); err != nil {
		return Snapshot{}, err
	}
	if withXLSX {
		snap.XLSX = strings.TrimSuffix(snap.CSV, ".csv") + ".xlsx"
		if err := writeXLSX(snap.XLSX, ds.Records); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

func writeCSV(path string, records []measure.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close snapshot: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func writeXLSX(path string, records []measure.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", snapshotSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(measure.Columns))
	for i, c := range measure.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(snapshotSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(r)
		if err := f.SetSheetRow(snapshotSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx snapshot: %w", err)
	}
	return nil
}

// xlsxRow leaves absent readings as blank cells
func xlsxRow(r measure.Record) []any {
	row := make([]any, 0, len(measure.Columns))
	for _, v := range r.Values() {
		switch p := v.(type) {
		case *int64:
			if p == nil {
				row = append(row, nil)
			} else {
				row = append(row, *p)
			}
		case *float64:
			if p == nil {
				row = append(row, nil)
			} else {
				row = append(row, *p)
			}
		default:
			row = append(row, v)
		}
	}
	return row
}

// ReadSnapshot loads a CSV snapshot back into a dataset, for reprocessing
// a previous run without touching the PDFs. The run time is recovered
// from the file name when it follows the snapshot naming scheme.
func ReadSnapshot(path string) (measure.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return measure.Dataset{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var records []measure.Record
	if err := gocsv.Unmarshal(bytes.NewReader(data), &records); err != nil {
		return measure.Dataset{}, fmt.Errorf("failed to decode snapshot %s: %w", filepath.Base(path), err)
	}

	ds := measure.Dataset{Records: records}
	stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), snapshotPrefix), ".csv")
	if t, err := time.ParseInLocation(snapshotStamp, stamp, time.Local); err == nil {
		ds.StartedAt = t
	}
	return ds, nil
}
