package hashcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":              "/",
		"/":             "/",
		"//":            "/",
		"items":         "/items",
		"/items/":       "/items",
		"//items//42//": "/items/42",
		"/a/./b":        "/a/./b",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), "input %q", in)
	}
}

func TestNormalizePath_Idempotent(t *testing.T) {
	inputs := []string{"", "/", "a", "a/b/", "//x//y", "/a/../b", "./c", "/é/ü/"}
	for _, in := range inputs {
		once := NormalizePath(in)
		assert.Equal(t, once, NormalizePath(once), "input %q", in)
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"/items", "", "/"},
		{"/items", "/about", "/about"},
		{"/items", "/a//b/../c/", "/a/c"},
		{"/items", "42", "/items/42"},
		{"/items/42", "../7", "/items/7"},
		{"/items/42", "./edit", "/items/42/edit"},
		{"/", "../../..", "/"},
		{"/a", "/../../b", "/b"},
		{"", "x", "/x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolvePath(tt.base, tt.path), "base %q path %q", tt.base, tt.path)
	}
}
