package domain

import (
	"math"
	"strconv"
	"strings"
)

// Delimiter separates the five fields of an encoded review line.
const Delimiter = ';'

const fieldCount = 5

// EncodeLine renders r as id;customerName;restaurantName;rating;text.
// Text fields are backslash-escaped so the line never holds a bare delimiter
// or line break.
func EncodeLine(r Review) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.ID, 10))
	b.WriteByte(Delimiter)
	b.WriteString(escapeField(r.CustomerName))
	b.WriteByte(Delimiter)
	b.WriteString(escapeField(r.RestaurantName))
	b.WriteByte(Delimiter)
	b.WriteString(FormatRating(r.Rating))
	b.WriteByte(Delimiter)
	b.WriteString(escapeField(r.Text))
	return b.String()
}

// DecodeLine is the inverse of EncodeLine. Lines without backslashes decode
// the same way the legacy unescaped format did.
func DecodeLine(line string) (Review, error) {
	parts := splitFields(line)
	if len(parts) != fieldCount {
		return Review{}, &DecodeError{Reason: "want 5 fields, got " + strconv.Itoa(len(parts))}
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Review{}, &DecodeError{Reason: "bad id " + strconv.Quote(parts[0])}
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return Review{}, &DecodeError{Reason: "bad rating " + strconv.Quote(parts[3])}
	}
	return Review{
		ID:             id,
		CustomerName:   parts[1],
		RestaurantName: parts[2],
		Rating:         rating,
		Text:           parts[4],
	}, nil
}

// FormatRating prints the shortest decimal that parses back to f, keeping a
// ".0" on integral values ("4.0", not "4").
func FormatRating(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func escapeField(s string) string {
	if !strings.ContainsAny(s, "\\;\n\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case Delimiter:
			b.WriteString(`\;`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// splitFields splits on unescaped delimiters and unescapes each field.
// Unknown escapes and a trailing lone backslash are kept verbatim.
func splitFields(line string) []string {
	out := make([]string, 0, fieldCount)
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			switch n := line[i]; n {
			case '\\', Delimiter:
				cur.WriteByte(n)
			case 'n':
				cur.WriteByte('\n')
			case 'r':
				cur.WriteByte('\r')
			default:
				cur.WriteByte('\\')
				cur.WriteByte(n)
			}
		case c == Delimiter:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, cur.String())
}
