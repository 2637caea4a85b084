package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
)

// Digest hashes everything generation produced: seed, every grid, the POI and
// building lists, connectors and spawns. Two runs of the same spec and seed
// yield the same digest.
func (res *Result) Digest() string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(res.Seed))
	h.Write(buf[:])
	for _, reg := range res.Regions {
		h.Write([]byte(reg.ID))
		if reg.Grid != nil {
			d := reg.Grid.Digest()
			h.Write(d[:])
		}
		writeJSON(h, reg.POIs)
		writeJSON(h, reg.Buildings)
	}
	writeJSON(h, res.Connectors)
	writeJSON(h, res.Spawns)
	return hex.EncodeToString(h.Sum(nil))
}

func writeJSON(h io.Writer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.Write(b)
	h.Write([]byte{'\n'})
}
