package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// maxRun keeps a single run length inside int32 on decode.
const maxRun = 1 << 31

// EncodeLayer packs a per-cell layer as base64 of (value, run) uvarint pairs.
func EncodeLayer(vals []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(vals); {
		v := vals[i]
		run := 1
		for j := i + 1; j < len(vals) && vals[j] == v && run < maxRun; j++ {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeLayer reverses EncodeLayer. want < 0 skips the length check.
func DecodeLayer(b64 string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, max(want, 0))
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("layer value too large: %d", v)
		}
		if run == 0 || run > maxRun {
			return nil, fmt.Errorf("bad run length %d at %d", run, i)
		}
		if want >= 0 && len(out)+int(run) > want {
			return nil, fmt.Errorf("layer overflows %d cells", want)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(v))
		}
	}
	if want >= 0 && len(out) != want {
		return nil, fmt.Errorf("layer has %d cells, want %d", len(out), want)
	}
	return out, nil
}

// EncodeElevation stores heights as raw little-endian float64 bits so a
// decoded grid hashes the same as the original.
func EncodeElevation(h []float64) string {
	buf := make([]byte, 8*len(h))
	for i, v := range h {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func DecodeElevation(b64 string, want int) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("elevation has %d bytes, not a multiple of 8", len(raw))
	}
	n := len(raw) / 8
	if want >= 0 && n != want {
		return nil, fmt.Errorf("elevation has %d cells, want %d", n, want)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return out, nil
}
