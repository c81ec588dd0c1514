package domain_test

import (
	"errors"
	"testing"

	"restaurant_reviews/internal/domain"
)

func TestEncodeLine_Example(t *testing.T) {
	r := domain.Review{ID: 1, CustomerName: "Alice", RestaurantName: "Pizza Place", Rating: 4.5, Text: "Great!"}
	if got, want := domain.EncodeLine(r), "1;Alice;Pizza Place;4.5;Great!"; got != want {
		t.Fatalf("EncodeLine = %q, want %q", got, want)
	}
}

func TestEncodeLine_IntegralRatingKeepsDecimal(t *testing.T) {
	r := domain.Review{ID: 7, CustomerName: "Bob", RestaurantName: "Diner", Rating: 4, Text: "ok"}
	if got, want := domain.EncodeLine(r), "7;Bob;Diner;4.0;ok"; got != want {
		t.Fatalf("EncodeLine = %q, want %q", got, want)
	}
}

func TestDecodeLine_RoundTrip(t *testing.T) {
	cases := []domain.Review{
		{ID: 1, CustomerName: "Alice", RestaurantName: "Pizza Place", Rating: 4.5, Text: "Great!"},
		{ID: 2, CustomerName: "", RestaurantName: "", Rating: 0, Text: ""},
		{ID: 3, CustomerName: "Zoë", RestaurantName: "Café; Bar", Rating: -1.25, Text: "a;b;c"},
		{ID: 4, CustomerName: `back\slash`, RestaurantName: `\;`, Rating: 10, Text: "line1\nline2\r\nend\\"},
		{ID: 9000000000, CustomerName: "big", RestaurantName: "id", Rating: 3.3333333333333335, Text: "  spaced  "},
	}
	for _, want := range cases {
		line := domain.EncodeLine(want)
		got, err := domain.DecodeLine(line)
		if err != nil {
			t.Fatalf("DecodeLine(%q): %v", line, err)
		}
		if got != want {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v\nline %q", got, want, line)
		}
	}
}

func TestEncodeLine_NeverHasBareDelimiterOrNewline(t *testing.T) {
	r := domain.Review{ID: 5, CustomerName: "a;b", RestaurantName: "c\nd", Rating: 1, Text: ";;;"}
	line := domain.EncodeLine(r)
	for i := 0; i < len(line); i++ {
		if line[i] == '\n' || line[i] == '\r' {
			t.Fatalf("encoded line contains a line break: %q", line)
		}
	}
	if got := len(splitCount(line)); got != 5 {
		t.Fatalf("expected 5 unescaped fields, got %d in %q", got, line)
	}
}

// splitCount counts fields separated by unescaped delimiters.
func splitCount(line string) []int {
	idx := []int{0}
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] == ';' {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestDecodeLine_LegacyLines(t *testing.T) {
	got, err := domain.DecodeLine(`12;Ann;Sushi Go;3.0;C:\menu was odd`)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	want := domain.Review{ID: 12, CustomerName: "Ann", RestaurantName: "Sushi Go", Rating: 3, Text: `C:\menu was odd`}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// A legacy line whose text happens to contain a known escape sequence is
// read as escaped; only unknown sequences survive verbatim.
func TestDecodeLine_LegacyKnownEscapes(t *testing.T) {
	cases := []struct {
		line string
		text string
	}{
		{`1;Ann;Cafe;4.0;saved to C:\new\reviews`, "saved to C:\new\reviews"},
		{`1;Ann;Cafe;4.0;a \\ b`, `a \ b`},
		{`1;Ann;Cafe;4.0;odd \q stays`, `odd \q stays`},
	}
	for _, c := range cases {
		got, err := domain.DecodeLine(c.line)
		if err != nil {
			t.Fatalf("DecodeLine(%q): %v", c.line, err)
		}
		if got.Text != c.text {
			t.Fatalf("DecodeLine(%q).Text = %q, want %q", c.line, got.Text, c.text)
		}
	}
}

func TestDecodeLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"1;Alice;Pizza Place;4.5",
		"1;Alice;Pizza Place;4.5;too;many",
		"x;Alice;Pizza Place;4.5;Great!",
		"1;Alice;Pizza Place;four;Great!",
		" 1;Alice;Pizza Place;4.5;Great!",
	} {
		_, err := domain.DecodeLine(line)
		if err == nil {
			t.Fatalf("DecodeLine(%q): expected error", line)
		}
		if !errors.Is(err, domain.ErrMalformedLine) {
			t.Fatalf("DecodeLine(%q): want ErrMalformedLine, got %v", line, err)
		}
		var de *domain.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("DecodeLine(%q): want *DecodeError, got %T", line, err)
		}
	}
}

func TestParseRating(t *testing.T) {
	for in, want := range map[string]float64{"4.5": 4.5, " 3 ": 3, "8,0": 8, "-2": -2, "11": 11} {
		got, err := domain.ParseRating(in)
		if err != nil {
			t.Fatalf("ParseRating(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseRating(%q) = %v, want %v", in, got, want)
		}
	}
	for _, in := range []string{"", "   ", "great", "NaN", "Inf", "4.5.1"} {
		_, err := domain.ParseRating(in)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("ParseRating(%q): want *ValidationError, got %v", in, err)
		}
		if ve.Field != "rating" {
			t.Fatalf("ParseRating(%q): field = %q", in, ve.Field)
		}
	}
}
