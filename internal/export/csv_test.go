package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

func TestEscapeCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "", want: ""},
		{in: "a,b", want: `"a,b"`},
		{in: `say "hi"`, want: `"say ""hi"""`},
		{in: "line1\nline2", want: "\"line1\nline2\""},
		{in: " leading space", want: " leading space"},
	}

	for _, tt := range tests {
		if got := EscapeCell(tt.in); got != tt.want {
			t.Errorf("EscapeCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteContactsCSV(t *testing.T) {
	t.Parallel()

	consent := time.Date(2024, 5, 1, 13, 4, 5, 123_000_000, time.UTC)
	contacts := []model.Contact{
		{
			Place: model.Place{
				PlaceID:              "p1",
				Name:                 `Padaria "Boa"`,
				FormattedAddress:     "Rua A, 10 - Centro",
				Rating:               4.5,
				UserRatingsTotal:     12,
				BusinessStatus:       "OPERATIONAL",
				Website:              "https://boa.example",
				FormattedPhoneNumber: "(41) 3333-4444",
			},
			ConsentTimestamp: consent,
		},
		{
			Place: model.Place{
				PlaceID:          "p2",
				Name:             "Mercado",
				FormattedAddress: "Rua B",
				Rating:           4,
				BusinessStatus:   "CLOSED_TEMPORARILY",
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteContactsCSV(&buf, contacts); err != nil {
		t.Fatalf("WriteContactsCSV() error = %v", err)
	}

	want := strings.Join([]string{
		"place_id,name,formatted_address,rating,user_ratings_total,business_status,website,formatted_phone_number,consent_timestamp",
		`p1,"Padaria ""Boa""","Rua A, 10 - Centro",4.5,12,OPERATIONAL,https://boa.example,(41) 3333-4444,2024-05-01T13:04:05.123Z`,
		"p2,Mercado,Rua B,4,0,CLOSED_TEMPORARILY,,,",
	}, "\n")

	if got := buf.String(); got != want {
		t.Errorf("WriteContactsCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteContactsCSV_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteContactsCSV(&buf, nil); err != nil {
		t.Fatalf("WriteContactsCSV() error = %v", err)
	}
	if got := buf.String(); got != strings.Join(Columns, ",") {
		t.Errorf("WriteContactsCSV(nil) = %q, want header only", got)
	}
}
