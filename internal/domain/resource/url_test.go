package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		scheme string
		path   string
		host   string
	}{
		{"file:///background.bmp", "file", "background.bmp", ""},
		{"file:///images/bg.bmp", "file", "images/bg.bmp", ""},
		{"http://example.com/index.html", "http", "index.html", "example.com"},
		{"HTTP://example.com", "http", "", "example.com"},
		{"memory:", "memory", "", ""},
		{"random:///normal?mu=3", "random", "normal", ""},
		{"pci:///0/3/0", "pci", "0/3/0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, u.Scheme)
			assert.Equal(t, tt.path, u.Path())
			assert.Equal(t, tt.host, u.Host())
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"", "background.bmp", ":x", "fi le:x"} {
		_, err := Parse(in)
		assert.True(t, errors.Is(err, ErrMalformed), in)
	}
}

func TestQueryAndString(t *testing.T) {
	u := MustParse("random:///normal?mu=3&sigma=0.5")
	assert.Equal(t, "3", u.Query().Get("mu"))
	assert.Equal(t, "0.5", u.Query().Get("sigma"))
	assert.Equal(t, "random:///normal?mu=3&sigma=0.5", u.String())
	assert.Empty(t, MustParse("memory:").Query())
}

func TestResponse(t *testing.T) {
	var r Response
	assert.True(t, r.Empty())
	assert.Equal(t, "", r.Get("title"))

	r = Response{Data: []byte("BM"), Meta: map[string]string{"title": "x"}}
	assert.False(t, r.Empty())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "BM", r.Text())
	assert.Equal(t, "x", r.Get("title"))
}
