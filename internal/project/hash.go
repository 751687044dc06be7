package project

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash)
type Digest [32]byte

// Combine hashes content followed by deps. Callers keep deps in a deterministic order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Fingerprint hashes everything in the config that changes generated output.
// Jobs and Cache do not.
func (c Config) Fingerprint() Digest {
	h := sha256.New()
	writeStrings := func(tag string, ss []string) {
		_, _ = h.Write([]byte(tag))
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(ss)))
		_, _ = h.Write(n[:])
		for _, s := range ss {
			_, _ = h.Write([]byte(strconv.Quote(s)))
		}
	}
	writeStrings("include", c.Markers.Include)
	writeStrings("exclude", c.Markers.Exclude)
	writeStrings("nullable", c.Markers.Nullable)
	writeStrings("output", []string{c.Output.File, c.Output.Runtime})
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
