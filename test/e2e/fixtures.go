// Fixture rendering: the corpus in the GeoNames postal export formats
// the importer reads.

package e2e

import (
	"archive/zip"
	"bytes"
	"strconv"
	"strings"

	"github.com/meridianlabs/yubin/internal/format"
)

// NoiseRowCount is the number of non-importable rows each fixture carries:
// a Canadian entry and a truncated line, so import counts exercise the
// row filter.
const NoiseRowCount = 2

// GeoNamesTSV renders records in the tab-separated US.txt layout: country
// code, postal code, place name, admin1 name and code, admin2 and admin3
// name and code (blank), latitude, longitude, accuracy.
func GeoNamesTSV(records []CorpusRecord) []byte {
	var b strings.Builder
	for _, r := range records {
		fields := []string{
			"US", r.Code, r.City, format.StateName(r.State), r.State,
			"", "", "", "",
			strconv.FormatFloat(r.Latitude, 'f', 4, 64),
			strconv.FormatFloat(r.Longitude, 'f', 4, 64),
			"4",
		}
		b.WriteString(strings.Join(fields, "\t"))
		b.WriteByte('\n')
	}
	b.WriteString("CA\tV6B\tVancouver\tBritish Columbia\tBC\t\t\t\t\t49.2774\t-123.1121\t4\n")
	b.WriteString("US\t00501\tHoltsville\n")
	return []byte(b.String())
}

// GeoNamesZip wraps the TSV rows in a zip archive shaped like the US.zip
// GeoNames ships: the data file plus a readme.txt the importer must skip.
func GeoNamesZip(records []CorpusRecord) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("readme.txt")
	_, _ = fw.Write([]byte("This work is licensed under a Creative Commons Attribution 4.0 License.\n"))
	fw, _ = w.Create("US.txt")
	_, _ = fw.Write(GeoNamesTSV(records))
	_ = w.Close()
	return buf.Bytes()
}
