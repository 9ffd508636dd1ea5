package header

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kisli/vmime-sub006/component"
	"github.com/kisli/vmime-sub006/grammar"
)

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var namedZones = map[string]int{
	"UT": 0, "GMT": 0,
	"EST": -5 * 60, "EDT": -4 * 60,
	"CST": -6 * 60, "CDT": -5 * 60,
	"MST": -7 * 60, "MDT": -6 * 60,
	"PST": -8 * 60, "PDT": -7 * 60,
}

// militaryZoneMinutes maps each military timezone letter (A-Z except J) to
// its UTC offset in minutes. A..M are west of Greenwich (negative), N..Y are
// east (positive), Z is Greenwich itself; J is unassigned. Table matches
// dateTime.cpp's literal letter-by-letter values rather than a formula,
// since the offset does not follow a single sign rule across the alphabet.
var militaryZoneMinutes = map[byte]int{
	'A': -60, 'B': -120, 'C': -180, 'D': -240, 'E': -300, 'F': -360,
	'G': -420, 'H': -480, 'I': -540, 'K': -600, 'L': -660, 'M': -720,
	'N': 60, 'O': 120, 'P': 180, 'Q': 240, 'R': 300, 'S': 360,
	'T': 420, 'U': 480, 'V': 540, 'W': 600, 'X': 660, 'Y': 720,
	'Z': 0,
}

// militaryZoneOffset maps a single military timezone letter to a UTC offset
// in minutes, per RFC 822 section 5 / RFC 2822 section 4.3.
func militaryZoneOffset(c byte) (int, bool) {
	off, ok := militaryZoneMinutes[grammar.ToUpper(c)]
	return off, ok
}

// DateTime is a parsed RFC 822/2822 date-time, kept as the original
// instant plus the zone offset it was expressed in, so Generate can
// reproduce the same offset instead of normalizing to UTC.
type DateTime struct {
	component.Bounds
	When       time.Time
	ZoneOffset int // minutes east of UTC, as parsed
	valid      bool
}

func NewDateTime() Value { return &DateTime{} }

func (d *DateTime) Children() []component.Component { return nil }

func (d *DateTime) GeneratedSize(ctx *component.GenerationContext) int { return 40 }

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

func (d *DateTime) ParseValue(ctx *component.ParsingContext, buf []byte, begin, end int) {
	s := strings.TrimSpace(unfold(string(buf[begin:end])))
	t, offset, ok := parseDateTimeString(s)
	if !ok {
		d.When = epoch
		d.ZoneOffset = 0
		d.valid = false
	} else {
		d.When = t
		d.ZoneOffset = offset
		d.valid = true
	}
	d.SetParsedBounds(begin, end)
}

// ParseDateTime is the exported single-shot parser used by parameter
// values (e.g. Content-Disposition's creation-date) that embed a date but
// aren't themselves a Date field.
func ParseDateTime(s string) (time.Time, bool) {
	t, _, ok := parseDateTimeString(strings.TrimSpace(s))
	return t, ok
}

// parseDateTimeString parses an RFC 822/2822 date-time string.
func parseDateTimeString(s string) (time.Time, int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return epoch, 0, false
	}
	// optional "dayname," prefix
	if strings.ContainsAny(fields[0], ",") || isDayName(strings.TrimSuffix(fields[0], ",")) {
		fields = fields[1:]
	}
	if len(fields) < 4 {
		return epoch, 0, false
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return epoch, 0, false
	}

	month, ok := parseMonthName(fields[1])
	if !ok {
		// unrecognized month name: default to January and keep parsing
		month = 1
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return epoch, 0, false
	}
	switch {
	case year <= 70:
		year += 2000
	case year < 1000:
		year += 1900
	}

	hh, mm, ss, ok := parseClock(fields[3])
	if !ok {
		return epoch, 0, false
	}

	offset := 0
	if len(fields) >= 5 {
		if off, ok := parseZone(fields[4]); ok {
			offset = off
		}
	}

	loc := time.FixedZone("", offset*60)
	t := time.Date(year, time.Month(month), day, hh, mm, ss, 0, loc)
	return t, offset, true
}

func isDayName(s string) bool {
	switch strings.ToLower(s) {
	case "mon", "tue", "wed", "thu", "fri", "sat", "sun":
		return true
	}
	return false
}

// parseMonthName disambiguates the 3-letter month abbreviation: Ju* by
// third char for Jun/Jul, Ma* by third char for Mar/May, A* by second char
// for Apr/Aug.
func parseMonthName(s string) (int, bool) {
	if len(s) < 3 {
		return 0, false
	}
	s = strings.ToLower(s[:3])
	switch s[:2] {
	case "ju":
		switch s[2] {
		case 'n':
			return 6, true
		case 'l':
			return 7, true
		}
		return 0, false
	case "ma":
		switch s[2] {
		case 'r':
			return 3, true
		case 'y':
			return 5, true
		}
		return 0, false
	}
	switch s[0] {
	case 'a':
		switch s[1] {
		case 'p':
			return 4, true
		case 'u':
			return 8, true
		}
		return 0, false
	}
	for i, name := range monthNames {
		if strings.EqualFold(name, s) {
			return i + 1, true
		}
	}
	return 0, false
}

func parseClock(s string) (hh, mm, ss int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, 0, false
	}
	var err error
	if hh, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if mm, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if len(parts) >= 3 {
		if ss, err = strconv.Atoi(parts[2]); err != nil {
			return 0, 0, 0, false
		}
	}
	return hh, mm, ss, true
}

func parseZone(s string) (int, bool) {
	if len(s) == 5 && (s[0] == '+' || s[0] == '-') {
		h, err1 := strconv.Atoi(s[1:3])
		m, err2 := strconv.Atoi(s[3:5])
		if err1 == nil && err2 == nil {
			off := h*60 + m
			if s[0] == '-' {
				off = -off
			}
			return off, true
		}
	}
	if off, ok := namedZones[strings.ToUpper(s)]; ok {
		return off, true
	}
	if len(s) == 1 {
		return militaryZoneOffset(s[0])
	}
	return 0, false
}

func (d *DateTime) GenerateValue(ctx *component.GenerationContext, curLinePos int) (string, int) {
	out := d.generate()
	return out, lastLineLen(out, curLinePos)
}

// generate renders the RFC 2822 date-time format:
// "www, D MMM YYYY HH:MM:SS ±HHMM".
func (d *DateTime) generate() string {
	t := d.When
	loc := time.FixedZone("", d.ZoneOffset*60)
	t = t.In(loc)
	sign := "+"
	off := d.ZoneOffset
	if off < 0 {
		sign = "-"
		off = -off
	}
	return fmt.Sprintf("%s, %d %s %04d %02d:%02d:%02d %s%02d%02d",
		t.Weekday().String()[:3], t.Day(), monthNames[t.Month()-1], t.Year(),
		t.Hour(), t.Minute(), t.Second(), sign, off/60, off%60)
}

func (d *DateTime) String() string { return d.generate() }

// Valid reports whether parsing succeeded; an invalid DateTime carries the
// fallback instant (1970-01-01 00:00:00 GMT).
func (d *DateTime) Valid() bool { return d.valid }
