// Package measure holds the canonical measurement record shared by every
// stage of the ingestion pipeline.
package measure

import (
	"time"
)

// Canonical column labels, in table order
const (
	ColDate             = "Fecha"
	ColTime             = "Hora"
	ColNH3              = "NH3"
	ColNH3Range         = "Rango_NH3"
	ColTemperature      = "Temperatura"
	ColTemperatureRange = "Rango_Temperatura"
	ColHumidity         = "Humedad"
	ColHumidityRange    = "Rango_Humedad"
	ColSourceFile       = "Nome_Arquivo"
	ColDeviceID         = "ID_Aviario"
)

// MeasurementColumns are the eight columns printed in a report table
var MeasurementColumns = []string{
	ColDate, ColTime, ColNH3, ColNH3Range,
	ColTemperature, ColTemperatureRange, ColHumidity, ColHumidityRange,
}

// Columns are the stored columns: the report columns plus provenance
var Columns = append(append([]string{}, MeasurementColumns...), ColSourceFile, ColDeviceID)

// Record is one normalised sensor reading. Numeric readings that could
// not be parsed are absent, never zero.
type Record struct {
	Date             string   `csv:"Fecha"`
	Time             string   `csv:"Hora"`
	NH3              OptInt   `csv:"NH3"`
	NH3Range         string   `csv:"Rango_NH3"`
	Temperature      OptFloat `csv:"Temperatura"`
	TemperatureRange string   `csv:"Rango_Temperatura"`
	Humidity         OptInt   `csv:"Humedad"`
	HumidityRange    string   `csv:"Rango_Humedad"`
	SourceFile       string   `csv:"Nome_Arquivo"`
	DeviceID         string   `csv:"ID_Aviario"`
}

// Values returns the record as a row in Columns order, with absent
// readings as nil
func (r Record) Values() []any {
	return []any{
		r.Date, r.Time, r.NH3.Ptr(), r.NH3Range,
		r.Temperature.Ptr(), r.TemperatureRange, r.Humidity.Ptr(), r.HumidityRange,
		r.SourceFile, r.DeviceID,
	}
}

// Dataset is the ordered output of one batch run
type Dataset struct {
	RunID     string
	StartedAt time.Time
	Records   []Record
}

// Len returns the number of records
func (d Dataset) Len() int {
	return len(d.Records)
}

// Filter returns the records for which keep reports true, in order
func (d Dataset) Filter(keep func(Record) bool) []Record {
	out := make([]Record, 0, len(d.Records))
	for _, r := range d.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
