package encoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/encrypter"
)

func TestTokenEncoderRoundTrip(t *testing.T) {
	gcm, err := encrypter.NewGCMEncrypter("some-key")
	require.NoError(t, err)

	tests := []struct {
		name    string
		encoder Encoder
	}{
		{name: "noop_encrypter", encoder: NewTokenEncoder(encrypter.NewNoopEncrypter(), NewBase64Encoder())},
		{name: "gcm_encrypter", encoder: NewTokenEncoder(gcm, NewBase64Encoder())},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			want := []byte("01JMXAMPLETOKEN00000000000")

			token, err := test.encoder.Encode(want)
			require.NoError(t, err)

			got, err := test.encoder.Decode(token)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestTokenEncoderRejectsForeignToken(t *testing.T) {
	e1, err := encrypter.NewGCMEncrypter("one-key")
	require.NoError(t, err)

	e2, err := encrypter.NewGCMEncrypter("another-key")
	require.NoError(t, err)

	token, err := NewTokenEncoder(e1, NewBase64Encoder()).Encode([]byte("01JMXAMPLETOKEN00000000000"))
	require.NoError(t, err)

	_, err = NewTokenEncoder(e2, NewBase64Encoder()).Decode(token)
	require.Error(t, err)
}
