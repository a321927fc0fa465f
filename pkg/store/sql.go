package store

import (
	"fmt"
	"strings"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
)

// Table is the canonical measurement table
const Table = "medicoes"

// AlertThreshold is the ammonia reading above which a row is listed in
// the alerts view
const AlertThreshold = 20

// View names, in creation order
const (
	ViewByDate   = "stats_por_data"
	ViewByFile   = "stats_por_arquivo"
	ViewByHour   = "tendencias_por_hora"
	ViewNH3Alert = "alertas_nh3_elevado"
)

// Views lists every derived view
var Views = []string{ViewByDate, ViewByFile, ViewByHour, ViewNH3Alert}

// dialect holds what differs between the SQL backends
type dialect struct {
	integer  string
	real     string
	text     string
	numeric  string // cast applied to an aggregate before ROUND
	cascade  string
	bindvars func(n int) string
}

var sqliteDialect = dialect{
	integer: "INTEGER",
	real:    "REAL",
	text:    "TEXT",
	bindvars: func(n int) string {
		return strings.TrimSuffix(strings.Repeat("?,", n), ",")
	},
}

var postgresDialect = dialect{
	integer: "BIGINT",
	real:    "DOUBLE PRECISION",
	text:    "TEXT",
	numeric: "::numeric",
	cascade: " CASCADE",
	bindvars: func(n int) string {
		vars := make([]string, n)
		for i := range vars {
			vars[i] = fmt.Sprintf("$%d", i+1)
		}
		return strings.Join(vars, ",")
	},
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteAll(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = quote(id)
	}
	return strings.Join(quoted, ", ")
}

func (d dialect) columnType(col string) string {
	switch col {
	case measure.ColNH3, measure.ColHumidity:
		return d.integer
	case measure.ColTemperature:
		return d.real
	default:
		return d.text
	}
}

// replaceTable drops and recreates the measurement table
func (d dialect) replaceTable() []string {
	stmts := make([]string, 0, len(Views)+2)
	for _, v := range Views {
		stmts = append(stmts, "DROP VIEW IF EXISTS "+quote(v))
	}
	defs := make([]string, len(measure.Columns))
	for i, col := range measure.Columns {
		defs[i] = quote(col) + " " + d.columnType(col)
	}
	return append(stmts,
		"DROP TABLE IF EXISTS "+quote(Table)+d.cascade,
		"CREATE TABLE "+quote(Table)+" ("+strings.Join(defs, ", ")+")",
	)
}

func (d dialect) insert() string {
	return "INSERT INTO " + quote(Table) + " (" + quoteAll(measure.Columns) + ") VALUES (" + d.bindvars(len(measure.Columns)) + ")"
}

func (d dialect) round(expr string) string {
	return "ROUND(" + expr + d.numeric + ", 1)"
}

// summary is the count plus mean, min and max of every measurement
func (d dialect) summary() string {
	cols := []string{"COUNT(*) AS num_registros"}
	for _, m := range []struct{ col, suffix string }{
		{measure.ColNH3, "nh3"},
		{measure.ColTemperature, "temperatura"},
		{measure.ColHumidity, "humedad"},
	} {
		cols = append(cols,
			d.round("AVG("+quote(m.col)+")")+" AS media_"+m.suffix,
			d.round("MIN("+quote(m.col)+")")+" AS min_"+m.suffix,
			d.round("MAX("+quote(m.col)+")")+" AS max_"+m.suffix,
		)
	}
	return strings.Join(cols, ", ")
}

// views drops and recreates every derived view
func (d dialect) views() []string {
	from := " FROM " + quote(Table)
	hour := "SUBSTR(" + quote(measure.ColTime) + ", 1, 2)"
	defs := map[string]string{
		ViewByDate: "SELECT " + quote(measure.ColDate) + ", " + d.summary() + from +
			" GROUP BY " + quote(measure.ColDate),
		ViewByFile: "SELECT " + quote(measure.ColSourceFile) + ", " + d.summary() + from +
			" GROUP BY " + quote(measure.ColSourceFile),
		ViewByHour: "SELECT " + hour + " AS hora_do_dia, " + d.summary() + from +
			" GROUP BY " + hour,
		ViewNH3Alert: "SELECT " + quoteAll([]string{
			measure.ColDate, measure.ColTime, measure.ColNH3,
			measure.ColTemperature, measure.ColHumidity, measure.ColSourceFile,
		}) + from +
			fmt.Sprintf(" WHERE %s > %d", quote(measure.ColNH3), AlertThreshold) +
			" ORDER BY " + quote(measure.ColDate) + ", " + quote(measure.ColTime),
	}

	stmts := make([]string, 0, 2*len(Views))
	for _, v := range Views {
		stmts = append(stmts,
			"DROP VIEW IF EXISTS "+quote(v),
			"CREATE VIEW "+quote(v)+" AS "+defs[v],
		)
	}
	return stmts
}
