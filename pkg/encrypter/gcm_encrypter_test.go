package encrypter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyDecrypt(t *testing.T) {
	encrypter, err := NewGCMEncrypter("token-key")
	require.NoError(t, err)

	got, err := encrypter.Decrypt(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestEmptyEncrypt(t *testing.T) {
	encrypter, err := NewGCMEncrypter("list-key")
	require.NoError(t, err)

	got, err := encrypter.Encrypt(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestEncryptDecrypt(t *testing.T) {
	t.Run("encrypt-decrypt_returns_original", func(t *testing.T) {
		encrypter, err := NewGCMEncrypter("page-key")
		require.NoError(t, err)

		want := []byte("0_12")

		encoded, err := encrypter.Encrypt(want)
		require.NoError(t, err)

		got, err := encrypter.Decrypt(encoded)
		require.NoError(t, err)

		require.Equal(t, want, got)
	})

	t.Run("two_different_encrypters_do_not_work_together", func(t *testing.T) {
		e1, err := NewGCMEncrypter("first-key")
		require.NoError(t, err)

		e2, err := NewGCMEncrypter("second-key")
		require.NoError(t, err)

		want := []byte("a continuation token")

		encoded, err := e1.Encrypt(want)
		require.NoError(t, err)

		_, err = e2.Decrypt(encoded)
		require.Error(t, err)
	})

	t.Run("truncated_ciphertext_fails", func(t *testing.T) {
		encrypter, err := NewGCMEncrypter("short-key")
		require.NoError(t, err)

		_, err = encrypter.Decrypt([]byte{0x01, 0x02})
		require.ErrorContains(t, err, "ciphertext too short")
	})
}
