package encoding

import (
	"math"
	"testing"
)

func TestLayer_RoundTrip(t *testing.T) {
	in := make([]uint16, 0, 200)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 50; i++ {
		in = append(in, 7)
	}
	in = append(in, 9, 10, 10, 10)

	out, err := DecodeLayer(EncodeLayer(in), len(in))
	if err != nil {
		t.Fatalf("DecodeLayer: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestLayer_LengthMismatch(t *testing.T) {
	enc := EncodeLayer([]uint16{4, 4, 4})
	if _, err := DecodeLayer(enc, 2); err == nil {
		t.Fatalf("expected overflow error")
	}
	if _, err := DecodeLayer(enc, 5); err == nil {
		t.Fatalf("expected short layer error")
	}
	if out, err := DecodeLayer(enc, -1); err != nil || len(out) != 3 {
		t.Fatalf("unchecked decode: len=%d err=%v", len(out), err)
	}
}

func TestLayer_Empty(t *testing.T) {
	out, err := DecodeLayer(EncodeLayer(nil), 0)
	if err != nil || len(out) != 0 {
		t.Fatalf("empty layer: len=%d err=%v", len(out), err)
	}
}

func TestLayer_BadBase64(t *testing.T) {
	if _, err := DecodeLayer("!!", -1); err == nil {
		t.Fatalf("expected base64 error")
	}
}

func TestElevation_RoundTrip(t *testing.T) {
	in := []float64{0, 0.5, 1.234567891234, 12.0, -3.21, 40.07, 40.07, math.Copysign(0, -1)}
	out, err := DecodeElevation(EncodeElevation(in), len(in))
	if err != nil {
		t.Fatalf("DecodeElevation: %v", err)
	}
	for i := range in {
		if math.Float64bits(out[i]) != math.Float64bits(in[i]) {
			t.Fatalf("cell %d: got %v want %v", i, out[i], in[i])
		}
	}
	if _, err := DecodeElevation("AAAA", -1); err == nil {
		t.Fatalf("expected error for a truncated value")
	}
	if _, err := DecodeElevation(EncodeElevation(in), len(in)+1); err == nil {
		t.Fatalf("expected length error")
	}
}
