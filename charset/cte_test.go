package charset

import (
	"bytes"
	"testing"
)

func TestQuotedPrintableRoundTrip(t *testing.T) {
	c, _ := CoderFor(EncodingQuotedPrintable)
	input := []byte("H\xe9llo = world, trailing space \r\nline two\t\r\n")
	enc, err := c.Encode(input, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := c.Decode(enc, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec, input) {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", dec, input)
	}
}

func TestQuotedPrintableLineBudget(t *testing.T) {
	c, _ := CoderFor(EncodingQuotedPrintable)
	input := bytes.Repeat([]byte{'a'}, 200)
	enc, err := c.Encode(input, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, line := range bytes.Split(enc, []byte("\r\n")) {
		if len(line) > qpLineLen {
			t.Fatalf("line exceeds budget: %d bytes: %q", len(line), line)
		}
	}
}

func TestBase64RoundTrip(t *testing.T) {
	c, _ := CoderFor(EncodingBase64)
	input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 5)
	enc, err := c.Encode(input, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, line := range bytes.Split(bytes.TrimRight(enc, "\r\n"), []byte("\r\n")) {
		if len(line) > base64LineLen {
			t.Fatalf("base64 line too long: %d", len(line))
		}
	}
	dec, err := c.Decode(enc, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec, input) {
		t.Fatalf("round trip mismatch")
	}
}

func TestUUEncodeRoundTrip(t *testing.T) {
	c, _ := CoderFor(EncodingUUEncode)
	input := []byte("Cat")
	enc, err := c.Encode(input, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := c.Decode(enc, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec, input) {
		t.Fatalf("round trip mismatch: got %q want %q", dec, input)
	}
}

func TestDecideEncoding(t *testing.T) {
	if got := Decide([]byte("hello world"), ASCII); got.Name != Encoding7Bit {
		t.Fatalf("ascii data should decide 7bit, got %s", got)
	}
	if got := Decide([]byte{0xff, 0xfe, 0x00, 0x01}, Charset{}); got.Name != EncodingBinary {
		t.Fatalf("undeclared high-bit data should decide binary, got %s", got)
	}
}
