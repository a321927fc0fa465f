package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/nh3ingest/internal/fixture"
	"github.com/pyhub-apps/nh3ingest/pkg/batch"
	"github.com/pyhub-apps/nh3ingest/pkg/config"
	"github.com/pyhub-apps/nh3ingest/pkg/extract"
	"github.com/pyhub-apps/nh3ingest/pkg/probe"
	"github.com/pyhub-apps/nh3ingest/pkg/store"
)

// tableStrategy serves canned tables keyed by file name
type tableStrategy map[string][][]string

func (s tableStrategy) Name() string { return "canned" }

func (s tableStrategy) Extract(_ context.Context, path string, _ probe.PageRange, _ extract.Encoding) ([]extract.Fragment, error) {
	rows, ok := s[filepath.Base(path)]
	if !ok {
		return nil, nil
	}
	return []extract.Fragment{{Rows: rows, SourceFile: path, Strategy: s.Name(), Page: 5}}, nil
}

var reports = tableStrategy{
	"aviario_1.pdf": {
		fixture.Header,
		{"01/03/2024", "08:00", "18 ppm", "OK", "23,5 °C", "OK", "45 %", "OK"},
		{"01/03/2024", "09:00", "25 ppm", "ALTO", "24,0", "OK", "47%", "OK"},
		{"01/03/2024", "10:00", "0 ppm", "-", "24,1", "OK", "50%", "OK"},
	},
	"Relatorio_galpao_2.pdf": {
		{"02/03/2024", "08:00", "12 ppm", "OK", "22,0", "OK", "40 %", "OK"},
		{"02/03/2024", "09:00", "0", "-", "22,4", "OK", "41 %", "OK"},
		{"02/03/2024", "10:00", "31 ppm", "ALTO", "25,5", "OK", "55 %", "OK"},
	},
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Input.Dir = filepath.Join(root, "pdf")
	cfg.Snapshot.Dir = filepath.Join(root, "csv")
	cfg.Store.SQLite.Path = filepath.Join(root, "database", "nh3.db")
	cfg.Metrics.Textfile = filepath.Join(root, "nh3ingest.prom")
	require.NoError(t, os.MkdirAll(cfg.Input.Dir, 0o755))
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, s extract.Strategy) *App {
	t.Helper()
	a, err := New(cfg, zerolog.Nop(),
		WithStrategies(s),
		WithPageCounter(func(string) (int, error) { return 8, nil }))
	require.NoError(t, err)
	return a
}

func writeReports(t *testing.T, dir string) {
	t.Helper()
	for name := range reports {
		fixture.WritePages(t, filepath.Join(dir, name), 1)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writeReports(t, cfg.Input.Dir)
	a := newTestApp(t, cfg, reports)

	rep, err := a.Run(context.Background())
	require.NoError(t, err)

	// interchange snapshot keeps every row, inactive ones included
	assert.Equal(t, 6, rep.Snapshot.Rows)
	ds, err := batch.ReadSnapshot(rep.Snapshot.CSV)
	require.NoError(t, err)
	require.Len(t, ds.Records, 6)

	first := ds.Records[0]
	assert.Equal(t, "Relatorio_galpao_2", first.SourceFile, "files are processed in name order")
	assert.Equal(t, "galpao_2", first.DeviceID)
	assert.Equal(t, "2024-03-02", first.Date)

	fourth := ds.Records[3]
	assert.Equal(t, "aviario_1", fourth.DeviceID)
	assert.Equal(t, int64(18), fourth.NH3.Int64)
	assert.Equal(t, 23.5, fourth.Temperature.Float64)
	assert.Equal(t, int64(45), fourth.Humidity.Int64)

	// the store only holds positive NH3 readings
	assert.Equal(t, store.LoadResult{Rows: 4, Filtered: 2}, rep.Load)

	db, err := store.OpenSQLite(context.Background(), cfg.Store.SQLite.Path)
	require.NoError(t, err)
	defer db.Close()

	var rows, inactive int
	require.NoError(t, db.DB().QueryRow(`SELECT COUNT(*), SUM("NH3" <= 0) FROM "medicoes"`).Scan(&rows, &inactive))
	assert.Equal(t, 4, rows)
	assert.Zero(t, inactive)

	alerts, err := db.DB().Query(`SELECT "Fecha", "Hora", "NH3" FROM "alertas_nh3_elevado"`)
	require.NoError(t, err)
	defer alerts.Close()
	var got []string
	for alerts.Next() {
		var date, hour string
		var nh3 int
		require.NoError(t, alerts.Scan(&date, &hour, &nh3))
		assert.Greater(t, nh3, store.AlertThreshold)
		got = append(got, date+" "+hour)
	}
	require.NoError(t, alerts.Err())
	assert.Equal(t, []string{"2024-03-01 09:00", "2024-03-02 10:00"}, got)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `nh3ingest_runs_total{result="ok"} 1`)
	assert.Contains(t, string(prom), "nh3ingest_rows_persisted_total 4")
}

func TestRunWithWorkersKeepsOrder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Extract.Workers = 4
	writeReports(t, cfg.Input.Dir)

	rep, err := newTestApp(t, cfg, reports).Run(context.Background())
	require.NoError(t, err)

	ds, err := batch.ReadSnapshot(rep.Snapshot.CSV)
	require.NoError(t, err)
	require.Len(t, ds.Records, 6)
	assert.Equal(t, "galpao_2", ds.Records[0].DeviceID)
	assert.Equal(t, "aviario_1", ds.Records[5].DeviceID)
}

func TestRunWithoutData(t *testing.T) {
	cfg := testConfig(t)
	writeReports(t, cfg.Input.Dir)

	_, err := newTestApp(t, cfg, tableStrategy{}).Run(context.Background())
	require.ErrorIs(t, err, batch.ErrNoData)

	assert.NoDirExists(t, cfg.Snapshot.Dir)
	assert.NoFileExists(t, cfg.Store.SQLite.Path)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `nh3ingest_runs_total{result="no_data"} 1`)
	assert.Contains(t, string(prom), `nh3ingest_files_total{status="skipped"} 2`)
}

func TestRunOnlyInactiveRows(t *testing.T) {
	cfg := testConfig(t)
	fixture.WritePages(t, filepath.Join(cfg.Input.Dir, "aviario_9.pdf"), 1)

	rep, err := newTestApp(t, cfg, tableStrategy{
		"aviario_9.pdf": {{"03/03/2024", "08:00", "0 ppm", "-", "20,0", "OK", "40 %", "OK"}},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Snapshot.Rows)
	assert.True(t, rep.Load.Skipped)
	assert.NoFileExists(t, cfg.Store.SQLite.Path)
}

func TestReprocess(t *testing.T) {
	cfg := testConfig(t)
	writeReports(t, cfg.Input.Dir)
	a := newTestApp(t, cfg, reports)

	rep, err := a.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(cfg.Store.SQLite.Path))

	again, err := a.Reprocess(context.Background(), rep.Snapshot.CSV)
	require.NoError(t, err)
	assert.Equal(t, rep.Load, again.Load)
	assert.FileExists(t, cfg.Store.SQLite.Path)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Extract.Workers = 0
	_, err := New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunMissingInputDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.Dir = filepath.Join(t.TempDir(), "absent")

	_, err := newTestApp(t, cfg, reports).Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, batch.ErrNoData)
}

func TestRunDefaultStrategiesOnGeneratedReport(t *testing.T) {
	cfg := testConfig(t)
	fixture.WriteReport(t, filepath.Join(cfg.Input.Dir, "aviario_4.pdf"), fixture.Report{
		Pages:     5,
		TableFrom: 5,
		Rows: [][]string{
			{"01/03/2024", "08:00", "18 ppm", "OK", "23,5 °C", "OK", "45 %", "OK"},
			{"01/03/2024", "09:00", "21 ppm", "ALTO", "24,0 °C", "OK", "47 %", "OK"},
			{"01/03/2024", "10:00", "9 ppm", "OK", "24,4 °C", "OK", "50 %", "OK"},
		},
	})

	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	rep, err := a.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Summary.Files, 1)
	assert.Equal(t, extract.StrategyStream, rep.Summary.Files[0].Extraction.Strategy)

	ds, err := batch.ReadSnapshot(rep.Snapshot.CSV)
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)
	for i, want := range []struct {
		nh3   int64
		rango string
		temp  float64
	}{{18, "OK", 23.5}, {21, "ALTO", 24.0}, {9, "OK", 24.4}} {
		r := ds.Records[i]
		assert.True(t, r.NH3.Valid, "row %d", i)
		assert.Equal(t, want.nh3, r.NH3.Int64, "row %d", i)
		assert.Equal(t, want.rango, r.NH3Range, "row %d", i)
		assert.Equal(t, want.temp, r.Temperature.Float64, "row %d", i)
		assert.Equal(t, "OK", r.HumidityRange, "row %d", i)
	}
	assert.Equal(t, store.LoadResult{Rows: 3}, rep.Load)

	db, err := store.OpenSQLite(context.Background(), cfg.Store.SQLite.Path)
	require.NoError(t, err)
	defer db.Close()

	var alerts int
	require.NoError(t, db.DB().QueryRow(`SELECT COUNT(*) FROM "alertas_nh3_elevado"`).Scan(&alerts))
	assert.Equal(t, 1, alerts)

	var hour string
	var nh3 int
	require.NoError(t, db.DB().QueryRow(`SELECT "Hora", "NH3" FROM "alertas_nh3_elevado"`).Scan(&hour, &nh3))
	assert.Equal(t, "09:00", hour)
	assert.Equal(t, 21, nh3)
}
