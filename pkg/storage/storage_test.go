package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationOptions(t *testing.T) {
	tests := []struct {
		name         string
		size         int32
		token        string
		expectedSize int
	}{
		{
			name:         "default_page_size",
			size:         0,
			token:        "",
			expectedSize: DefaultPageSize,
		},
		{
			name:         "negative_page_size",
			size:         -5,
			token:        "",
			expectedSize: DefaultPageSize,
		},
		{
			name:         "explicit_page_size",
			size:         7,
			token:        "01JC8T1RFSSEVfake",
			expectedSize: 7,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts := NewPaginationOptions(test.size, test.token)
			require.Equal(t, test.expectedSize, opts.PageSize)
			require.Equal(t, test.token, opts.From)
		})
	}
}
