package hashcodec

import (
	"path"
	"strings"
)

// NormalizePath gives p a single leading slash and removes duplicate and
// trailing slashes. The empty path becomes "/". Dot segments are left alone;
// use ResolvePath to collapse them.
func NormalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	segments := strings.Split(p, "/")
	kept := segments[:0]
	for _, seg := range segments {
		if seg != "" {
			kept = append(kept, seg)
		}
	}

	return "/" + strings.Join(kept, "/")
}

// ResolvePath resolves p against base and normalizes the result.
//
// Absolute paths ignore base. Relative paths are resolved with base treated as
// a directory, so ResolvePath("/items", "42") is "/items/42" and
// ResolvePath("/items/42", "../7") is "/items/7". "." and ".." segments are
// collapsed and ".." never climbs above the root. The empty path resolves to
// the root.
func ResolvePath(base, p string) string {
	switch {
	case p == "":
		return "/"
	case strings.HasPrefix(p, "/"):
		return NormalizePath(path.Clean(p))
	default:
		return NormalizePath(path.Join(NormalizePath(base), p))
	}
}
