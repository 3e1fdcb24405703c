package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/iped"
)

func generateTestMatrix(t *testing.T, params iped.Params) *iped.StudyMatrix {
	t.Helper()

	gen, err := iped.NewGenerator()
	require.NoError(t, err)
	t.Cleanup(gen.Close)

	matrix, _, err := gen.Generate(context.Background(), params, iped.WithSeed(11))
	require.NoError(t, err)
	return matrix
}

func TestMatrixCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name           string
		params         iped.Params
		expectedFormat byte
	}{
		{
			name: "small_matrix_stored_uncompressed",
			params: iped.Params{
				NumElements:        4,
				TasksPerRespondent: 2,
				NumRespondents:     1,
				MinActive:          1,
				MaxActive:          2,
			},
			expectedFormat: matrixFormatJSON,
		},
		{
			name: "large_matrix_stored_compressed",
			params: iped.Params{
				NumElements:        12,
				TasksPerRespondent: 20,
				NumRespondents:     25,
				MinActive:          3,
				MaxActive:          6,
			},
			expectedFormat: matrixFormatZstdJSON,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			matrix := generateTestMatrix(t, test.params)

			blob, err := EncodeMatrix(matrix)
			require.NoError(t, err)
			require.Equal(t, test.expectedFormat, blob[0])

			decoded, err := DecodeMatrix(blob)
			require.NoError(t, err)

			expected, err := json.Marshal(matrix)
			require.NoError(t, err)
			actual, err := json.Marshal(decoded)
			require.NoError(t, err)
			require.Equal(t, expected, actual)
		})
	}
}

func TestMatrixCompressionShrinksLargeMatrices(t *testing.T) {
	matrix := generateTestMatrix(t, iped.Params{
		NumElements:        16,
		TasksPerRespondent: 30,
		NumRespondents:     50,
		MinActive:          4,
		MaxActive:          8,
	})

	raw, err := json.Marshal(matrix)
	require.NoError(t, err)

	blob, err := EncodeMatrix(matrix)
	require.NoError(t, err)
	require.Less(t, len(blob), len(raw)/2)
}

func TestDecodeMatrixRejectsMalformedBlobs(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{
			name: "empty_blob",
			blob: nil,
		},
		{
			name: "unknown_format_tag",
			blob: []byte{0x7f, '{', '}'},
		},
		{
			name: "json_payload_not_a_matrix",
			blob: []byte{matrixFormatJSON, '[', ']'},
		},
		{
			name: "compressed_payload_truncated",
			blob: []byte{matrixFormatZstdJSON, 0x01, 0x02},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeMatrix(test.blob)
			require.Error(t, err)
		})
	}
}
