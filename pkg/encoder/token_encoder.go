package encoder

import (
	"github.com/mindsurve/taskgen/pkg/encrypter"
)

// TokenEncoder produces opaque continuation tokens: payloads are encrypted
// first and the ciphertext is then text encoded for transport in JSON.
type TokenEncoder struct {
	crypt encrypter.Encrypter
	text  Encoder
}

var _ Encoder = (*TokenEncoder)(nil)

func NewTokenEncoder(crypt encrypter.Encrypter, text Encoder) *TokenEncoder {
	return &TokenEncoder{crypt: crypt, text: text}
}

// Decode reverses Encode: text decode first, then decrypt.
func (e *TokenEncoder) Decode(s string) ([]byte, error) {
	raw, err := e.text.Decode(s)
	if err != nil {
		return nil, err
	}

	return e.crypt.Decrypt(raw)
}

// Encode encrypts data and text encodes the ciphertext.
func (e *TokenEncoder) Encode(data []byte) (string, error) {
	sealed, err := e.crypt.Encrypt(data)
	if err != nil {
		return "", err
	}

	return e.text.Encode(sealed)
}
