// Package compress provides the pluggable compression codecs persistence
// stores use to shrink values on the wire and on disk.
package compress

import (
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compressor compresses and decompresses data. Implementations must be
// safe for concurrent use.
type Compressor interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
	// Extension returns the filename suffix a store should use for data
	// written with this codec, empty for the uncompressed default.
	Extension() string
}

type none struct{}

// None returns a pass-through compressor.
func None() Compressor { return none{} }

func (none) Encode(data []byte) ([]byte, error) { return data, nil }
func (none) Decode(data []byte) ([]byte, error) { return data, nil }
func (none) Extension() string                  { return "" }

type s2Codec struct{}

// S2 returns a compressor using S2, an improved, faster Snappy.
func S2() Compressor { return s2Codec{} }

func (s2Codec) Encode(data []byte) ([]byte, error) { return s2.Encode(nil, data), nil }
func (s2Codec) Decode(data []byte) ([]byte, error) { return s2.Decode(nil, data) }
func (s2Codec) Extension() string                  { return ".s2" }

type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Zstd returns a compressor using Zstandard at the given speed tier: 1 is
// fastest, 4 is best-compression, anything in between is the library
// default.
func Zstd(level int) Compressor {
	speed := zstd.SpeedDefault
	switch {
	case level <= 1:
		speed = zstd.SpeedFastest
	case level >= 4:
		speed = zstd.SpeedBestCompression
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(speed)) //nolint:errcheck // WithEncoderLevel never errors
	dec, _ := zstd.NewReader(nil)                               //nolint:errcheck // no options passed, cannot fail
	return &zstdCodec{enc: enc, dec: dec}
}

func (z *zstdCodec) Encode(data []byte) ([]byte, error) { return z.enc.EncodeAll(data, nil), nil }
func (z *zstdCodec) Decode(data []byte) ([]byte, error) { return z.dec.DecodeAll(data, nil) }
func (*zstdCodec) Extension() string                    { return ".zst" }
