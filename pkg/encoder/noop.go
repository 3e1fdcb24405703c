package encoder

type NoopEncoder struct{}

var _ Encoder = (*NoopEncoder)(nil)

func NewNoopEncoder() *NoopEncoder {
	return &NoopEncoder{}
}

func (e *NoopEncoder) Decode(s string) ([]byte, error) {
	return []byte(s), nil
}

func (e *NoopEncoder) Encode(data []byte) (string, error) {
	return string(data), nil
}
