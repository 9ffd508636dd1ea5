package header

import "testing"

func TestDateTimeParseRfc822(t *testing.T) {
	got, ok := ParseDateTime("Fri, 21 Nov 1997 09:55:06 -0600")
	if !ok {
		t.Fatal("expected successful parse")
	}
	if got.Year() != 1997 || got.Month() != 11 || got.Day() != 21 {
		t.Fatalf("got %v", got)
	}
	if got.Hour() != 9 || got.Minute() != 55 || got.Second() != 6 {
		t.Fatalf("got %v", got)
	}
}

func TestDateTimeParseNamedZone(t *testing.T) {
	got, ok := ParseDateTime("21 Nov 1997 09:55:06 GMT")
	if !ok {
		t.Fatal("expected successful parse")
	}
	if _, off := got.Zone(); off != 0 {
		t.Fatalf("offset = %d", off)
	}
}

func TestDateTimeParseMilitaryZone(t *testing.T) {
	got, ok := ParseDateTime("21 Nov 1997 09:55:06 A")
	if !ok {
		t.Fatal("expected successful parse")
	}
	if _, off := got.Zone(); off != -3600 {
		t.Fatalf("offset = %d", off)
	}
}

func TestDateTimeParseMilitaryZoneEastRange(t *testing.T) {
	got, ok := ParseDateTime("21 Nov 1997 09:55:06 N")
	if !ok {
		t.Fatal("expected successful parse")
	}
	if _, off := got.Zone(); off != 3600 {
		t.Fatalf("offset = %d", off)
	}
}

func TestDateTimeParseMilitaryZoneSkipsJ(t *testing.T) {
	if _, ok := militaryZoneOffset('J'); ok {
		t.Fatal("J is not a valid military zone letter")
	}
	// K follows the skipped J but must still mean -10h, not -11h.
	if off, ok := militaryZoneOffset('K'); !ok || off != -600 {
		t.Fatalf("K offset = %d ok=%v, want -600", off, ok)
	}
	if off, ok := militaryZoneOffset('L'); !ok || off != -660 {
		t.Fatalf("L offset = %d ok=%v, want -660", off, ok)
	}
	if off, ok := militaryZoneOffset('M'); !ok || off != -720 {
		t.Fatalf("M offset = %d ok=%v, want -720", off, ok)
	}
}

func TestDateTimeParseTwoDigitYear(t *testing.T) {
	got, ok := ParseDateTime("21 Nov 97 09:55:06 GMT")
	if !ok || got.Year() != 1997 {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestDateTimeParseFallsBackOnGarbage(t *testing.T) {
	d := &DateTime{}
	buf := []byte("not a date at all")
	d.ParseValue(nil, buf, 0, len(buf))
	if d.Valid() {
		t.Fatal("expected invalid")
	}
	if d.When.Year() != 1970 {
		t.Fatalf("expected epoch fallback, got %v", d.When)
	}
}

func TestDateTimeGenerateFormat(t *testing.T) {
	d := &DateTime{}
	buf := []byte("Fri, 21 Nov 1997 09:55:06 -0600")
	d.ParseValue(nil, buf, 0, len(buf))
	got := d.generate()
	want := "Fri, 21 Nov 1997 09:55:06 -0600"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMonthDisambiguation(t *testing.T) {
	cases := map[string]int{"Jun": 6, "Jul": 7, "Mar": 3, "May": 5, "Apr": 4, "Aug": 8}
	for name, want := range cases {
		got, ok := parseMonthName(name)
		if !ok || got != want {
			t.Errorf("parseMonthName(%q) = %d, %v; want %d", name, got, ok, want)
		}
	}
}
