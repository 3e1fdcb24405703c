package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/mindsurve/taskgen/pkg/iped"
)

// Task matrices are stored as an opaque blob: a one byte format tag
// followed by the payload. Matrices below the compression threshold are
// stored as plain JSON, larger ones are zstd compressed.
const (
	matrixFormatJSON     byte = 0x01
	matrixFormatZstdJSON byte = 0x02

	matrixCompressionThreshold = 1 << 10
)

var (
	matrixEncoder *zstd.Encoder
	matrixDecoder *zstd.Decoder
)

func init() {
	var err error

	matrixEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}

	matrixDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
}

// EncodeMatrix serializes a task matrix into the blob format stored by
// the datastore engines.
func EncodeMatrix(m *iped.StudyMatrix) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal matrix: %w", err)
	}

	if len(raw) < matrixCompressionThreshold {
		blob := make([]byte, 1+len(raw))
		blob[0] = matrixFormatJSON
		copy(blob[1:], raw)
		return blob, nil
	}

	blob := make([]byte, 1, 1+len(raw)/3)
	blob[0] = matrixFormatZstdJSON
	return matrixEncoder.EncodeAll(raw, blob), nil
}

// DecodeMatrix reverses [EncodeMatrix].
func DecodeMatrix(blob []byte) (*iped.StudyMatrix, error) {
	if len(blob) < 1 {
		return nil, fmt.Errorf("matrix blob is empty")
	}

	var raw []byte
	switch blob[0] {
	case matrixFormatJSON:
		raw = blob[1:]
	case matrixFormatZstdJSON:
		decompressed, err := matrixDecoder.DecodeAll(blob[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("decompress matrix: %w", err)
		}
		raw = decompressed
	default:
		return nil, fmt.Errorf("unknown matrix blob format 0x%02x", blob[0])
	}

	var m iped.StudyMatrix
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal matrix: %w", err)
	}

	return &m, nil
}
