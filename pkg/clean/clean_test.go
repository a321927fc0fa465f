package clean

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
	"github.com/pyhub-apps/nh3ingest/pkg/normalize"
)

func canonicalRow(date, nh3, temp, hum string) map[string]string {
	return map[string]string{
		measure.ColDate:             date,
		measure.ColTime:             " 08:00 ",
		measure.ColNH3:              nh3,
		measure.ColNH3Range:         "OK",
		measure.ColTemperature:      temp,
		measure.ColTemperatureRange: "OK",
		measure.ColHumidity:         hum,
		measure.ColHumidityRange:    "OK",
	}
}

func table(rows ...map[string]string) normalize.Table {
	return normalize.Table{
		Schema:     normalize.CanonicalSchema(),
		Rows:       rows,
		SourceFile: "aviario_2_marco",
		DeviceID:   "aviario_2",
	}
}

func TestFieldCoercion(t *testing.T) {
	records, rep := New(zerolog.Nop()).Clean(table(canonicalRow("01/03/2024", "18 ppm", "23,5°C", "45 %")))
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "2024-03-01", r.Date)
	assert.Equal(t, "08:00", r.Time)
	assert.Equal(t, measure.Int(18), r.NH3)
	assert.Equal(t, measure.Float(23.5), r.Temperature)
	assert.Equal(t, measure.Int(45), r.Humidity)
	assert.Equal(t, "aviario_2_marco", r.SourceFile)
	assert.Equal(t, "aviario_2", r.DeviceID)
	assert.Equal(t, 1, rep.Rows)
	assert.Zero(t, rep.FailureCount())
}

func TestUnparsableBecomesAbsent(t *testing.T) {
	tests := []struct {
		name  string
		row   map[string]string
		check func(t *testing.T, r measure.Record)
		field string
	}{
		{
			name:  "ammonia not available",
			row:   canonicalRow("01/03/2024", "N/D", "23,5", "45%"),
			check: func(t *testing.T, r measure.Record) { assert.False(t, r.NH3.Valid) },
			field: measure.ColNH3,
		},
		{
			name:  "temperature garbage",
			row:   canonicalRow("01/03/2024", "18", "--,-", "45%"),
			check: func(t *testing.T, r measure.Record) { assert.False(t, r.Temperature.Valid) },
			field: measure.ColTemperature,
		},
		{
			name:  "humidity decimal",
			row:   canonicalRow("01/03/2024", "18", "23", "45,5 %"),
			check: func(t *testing.T, r measure.Record) { assert.False(t, r.Humidity.Valid) },
			field: measure.ColHumidity,
		},
		{
			name:  "date kept raw",
			row:   canonicalRow("2024/03/01", "18", "23", "45"),
			check: func(t *testing.T, r measure.Record) { assert.Equal(t, "2024/03/01", r.Date) },
			field: measure.ColDate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, rep := New(zerolog.Nop()).Clean(table(tt.row))
			require.Len(t, records, 1, "the row survives")
			tt.check(t, records[0])
			assert.Equal(t, 1, rep.Failures[tt.field])
			assert.Equal(t, 1, rep.FailureCount())
		})
	}
}

func TestZeroIsAReading(t *testing.T) {
	records, _ := New(zerolog.Nop()).Clean(table(canonicalRow("1/3/2024", "0 ppm", "0,0 ℃", "0%")))
	r := records[0]
	assert.Equal(t, "2024-03-01", r.Date)
	assert.Equal(t, measure.Int(0), r.NH3)
	assert.Equal(t, measure.Float(0), r.Temperature)
	assert.Equal(t, measure.Int(0), r.Humidity)
}

func TestEmptyCellsAreAbsentWithoutWarning(t *testing.T) {
	records, rep := New(zerolog.Nop()).Clean(table(canonicalRow("", "", " ", "")))
	r := records[0]
	assert.Empty(t, r.Date)
	assert.False(t, r.NH3.Valid)
	assert.False(t, r.Temperature.Valid)
	assert.False(t, r.Humidity.Valid)
	assert.Zero(t, rep.FailureCount())
}

func TestNegativeTemperatureAndUnitVariants(t *testing.T) {
	records, _ := New(zerolog.Nop()).Clean(table(
		canonicalRow("01/03/2024", "18PPM", "-1,5 º C", "45%"),
	))
	assert.Equal(t, measure.Int(18), records[0].NH3)
	assert.Equal(t, measure.Float(-1.5), records[0].Temperature)
}

func TestPositionalTableKeepsProvenanceOnly(t *testing.T) {
	tbl := normalize.Table{
		Schema:     normalize.PositionalSchema(3),
		Rows:       []map[string]string{{"col_0": "a", "col_1": "18", "col_2": "c"}},
		SourceFile: "relatorio_final",
		DeviceID:   "relatorio_final",
	}
	records, rep := New(zerolog.Nop()).Clean(tbl)
	require.Len(t, records, 1)
	assert.Equal(t, measure.Record{SourceFile: "relatorio_final", DeviceID: "relatorio_final"}, records[0])
	assert.Zero(t, rep.FailureCount())
}

func TestReportAdd(t *testing.T) {
	var total Report
	total.Add(Report{Rows: 2, Failures: map[string]int{measure.ColNH3: 1}})
	total.Add(Report{Rows: 3, Failures: map[string]int{measure.ColNH3: 2, measure.ColDate: 1}})
	assert.Equal(t, 5, total.Rows)
	assert.Equal(t, 3, total.Failures[measure.ColNH3])
	assert.Equal(t, 4, total.FailureCount())
}
