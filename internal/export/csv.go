// Package export renders saved contacts for download.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// Columns is the fixed header order of the contacts CSV.
var Columns = []string{
	"place_id",
	"name",
	"formatted_address",
	"rating",
	"user_ratings_total",
	"business_status",
	"website",
	"formatted_phone_number",
	"consent_timestamp",
}

// TimestampLayout matches the millisecond UTC timestamps the dashboard stores.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ContentType is the media type of the CSV document.
const ContentType = "text/csv; charset=utf-8"

// Filename is the suggested download name.
const Filename = "contatos.csv"

// WriteContactsCSV writes the header and one row per contact.
// Rows are separated by a single newline with no trailing newline.
func WriteContactsCSV(w io.Writer, contacts []model.Contact) error {
	var b strings.Builder
	b.WriteString(strings.Join(Columns, ","))

	for i := range contacts {
		b.WriteByte('\n')
		writeRow(&b, &contacts[i])
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write contacts csv: %w", err)
	}
	return nil
}

func writeRow(b *strings.Builder, c *model.Contact) {
	cells := []string{
		c.PlaceID,
		c.Name,
		c.FormattedAddress,
		strconv.FormatFloat(c.Rating, 'f', -1, 64),
		strconv.Itoa(c.UserRatingsTotal),
		c.BusinessStatus,
		c.Website,
		c.FormattedPhoneNumber,
		formatTimestamp(c.ConsentTimestamp),
	}
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeCell(cell))
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// EscapeCell quotes a cell containing a comma, quote or newline,
// doubling any internal quotes.
func EscapeCell(cell string) string {
	if !strings.ContainsAny(cell, ",\"\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
