// Package clean coerces the text cells of normalised tables into typed
// measurement records. A cell that cannot be coerced becomes an absent
// value and a warning; it never fails the row, the file or the batch.
package clean

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pyhub-apps/nh3ingest/pkg/measure"
	"github.com/pyhub-apps/nh3ingest/pkg/normalize"
)

var (
	ppmSuffix     = regexp.MustCompile(`(?i)\s*ppm`)
	degreeSuffix  = regexp.MustCompile(`\s*[°℃º]\s*C?`)
	percentSuffix = regexp.MustCompile(`\s*%`)
)

// Date layouts accepted in reports; the single-digit forms also read
// zero-padded days and months
const (
	reportDate = "2/1/2006"
	isoDate    = "2006-01-02"
)

// Report counts what happened while cleaning
type Report struct {
	Rows     int
	Failures map[string]int // coercion failures per column
}

// Add merges other into r
func (r *Report) Add(other Report) {
	r.Rows += other.Rows
	for field, n := range other.Failures {
		r.fail(field, n)
	}
}

// FailureCount returns the total number of failed cells
func (r Report) FailureCount() int {
	n := 0
	for _, c := range r.Failures {
		n += c
	}
	return n
}

func (r *Report) fail(field string, n int) {
	if r.Failures == nil {
		r.Failures = make(map[string]int)
	}
	r.Failures[field] += n
}

// Cleaner converts tables to records
type Cleaner struct {
	log zerolog.Logger
}

// New returns a Cleaner logging coercion failures to log
func New(log zerolog.Logger) *Cleaner {
	return &Cleaner{log: log}
}

// Clean returns one record per table row. Positional tables yield records
// that carry only their provenance, since none of their cells has a known
// meaning.
func (c *Cleaner) Clean(t normalize.Table) ([]measure.Record, Report) {
	var rep Report
	records := make([]measure.Record, 0, len(t.Rows))

	for i, row := range t.Rows {
		rec := measure.Record{SourceFile: t.SourceFile, DeviceID: t.DeviceID}
		if t.Schema.Kind == normalize.Canonical {
			rc := rowCleaner{log: c.log, file: t.SourceFile, page: t.Page, row: i, rep: &rep}
			rec.Date = rc.date(row[measure.ColDate])
			rec.Time = strings.TrimSpace(row[measure.ColTime])
			rec.NH3 = rc.integer(measure.ColNH3, row[measure.ColNH3], ppmSuffix)
			rec.NH3Range = strings.TrimSpace(row[measure.ColNH3Range])
			rec.Temperature = rc.temperature(row[measure.ColTemperature])
			rec.TemperatureRange = strings.TrimSpace(row[measure.ColTemperatureRange])
			rec.Humidity = rc.integer(measure.ColHumidity, row[measure.ColHumidity], percentSuffix)
			rec.HumidityRange = strings.TrimSpace(row[measure.ColHumidityRange])
		}
		records = append(records, rec)
	}
	rep.Rows = len(records)
	return records, rep
}

// rowCleaner carries the diagnostic context of one row
type rowCleaner struct {
	log  zerolog.Logger
	file string
	page int
	row  int
	rep  *Report
}

func (rc rowCleaner) warn(field, raw, reason string) {
	rc.rep.fail(field, 1)
	rc.log.Warn().Str("file", rc.file).Int("page", rc.page).Int("row", rc.row).
		Str("field", field).Str("raw", raw).Msg(reason)
}

func (rc rowCleaner) integer(field, raw string, suffix *regexp.Regexp) measure.OptInt {
	s := strings.TrimSpace(suffix.ReplaceAllString(raw, ""))
	if s == "" {
		return measure.OptInt{}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		rc.warn(field, raw, "value is not an integer, leaving it empty")
		return measure.OptInt{}
	}
	return measure.Int(v)
}

func (rc rowCleaner) temperature(raw string) measure.OptFloat {
	s := strings.TrimSpace(degreeSuffix.ReplaceAllString(raw, ""))
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return measure.OptFloat{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		rc.warn(measure.ColTemperature, raw, "value is not a decimal number, leaving it empty")
		return measure.OptFloat{}
	}
	return measure.Float(d.InexactFloat64())
}

// date rewrites day/month/year as ISO. Unparsable dates are kept as the
// trimmed raw text.
func (rc rowCleaner) date(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	d, err := time.Parse(reportDate, s)
	if err != nil {
		rc.warn(measure.ColDate, raw, "date is not day/month/year, keeping raw text")
		return s
	}
	return d.Format(isoDate)
}
