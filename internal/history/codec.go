// Package history encodes version snapshots and computes the delta that
// turns one snapshot into another.
package history

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wagnerlima/memory-cloud/archimodel/internal/errors"
	"github.com/wagnerlima/memory-cloud/archimodel/internal/models"
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Encode serialises a snapshot as zstd-compressed msgpack.
func Encode(s *models.Snapshot) ([]byte, error) {
	raw, err := msgpack.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	enc, err := zstdEncoder()
	if err != nil {
		return nil, errors.Wrap(err, "init zstd encoder")
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode reverses Encode. Maps are never nil and timestamps are UTC in the
// result.
func Decode(data []byte) (*models.Snapshot, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return nil, errors.Wrap(err, "init zstd decoder")
	}
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decompress snapshot")
	}
	var s models.Snapshot
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	Normalize(&s)
	return &s, nil
}

// Normalize fills nil maps and slices, converts timestamps to UTC and orders
// entities by id, so snapshots read from the store and decoded from the log
// compare equal.
func Normalize(s *models.Snapshot) {
	s.Model.Attributes = orEmpty(s.Model.Attributes)
	s.Model.CreatedAt = s.Model.CreatedAt.UTC()
	s.Model.UpdatedAt = s.Model.UpdatedAt.UTC()
	if s.Elements == nil {
		s.Elements = []models.Element{}
	}
	if s.Relationships == nil {
		s.Relationships = []models.Relationship{}
	}
	for i := range s.Elements {
		e := &s.Elements[i]
		e.Attributes = orEmpty(e.Attributes)
		e.Tags = orEmpty(e.Tags)
		e.CreatedAt = e.CreatedAt.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
	}
	for i := range s.Relationships {
		r := &s.Relationships[i]
		r.Attributes = orEmpty(r.Attributes)
		r.Tags = orEmpty(r.Tags)
		r.CreatedAt = r.CreatedAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
	}
	s.Sort()
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
