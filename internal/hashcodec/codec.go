package hashcodec

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// Root is the hash every malformed input degrades to.
const Root = "#/"

// hashPattern splits a hash into its path and optional query.
var hashPattern = regexp.MustCompile(`^#([^?]*)(?:\?(.*))?$`)

// readableEscapes are the bytes the readable query form must still escape for
// the query to parse back to the same state.
const readableEscapes = "%&=#+"

// Encode builds a hash for path and state. The path is normalized and a
// non-empty state is appended as a query string sorted by key. Unless
// uriEncode is set the query is written in the readable form.
func Encode(path string, state State, uriEncode bool) string {
	hash := "#" + NormalizePath(path)
	if q := EncodeQuery(state, uriEncode); q != "" {
		hash += "?" + q
	}
	return hash
}

// EncodeQuery form-encodes state with keys in sorted order.
func EncodeQuery(state State, uriEncode bool) string {
	if len(state) == 0 {
		return ""
	}

	escape := escapeReadable
	if uriEncode {
		escape = url.QueryEscape
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(state[k]))
	}
	return b.String()
}

// Selector builds a value from the parts of a decoded hash.
type Selector[T any] func(path, params string, state State) T

// Decode splits hash into a normalized path, the raw query string and the
// parsed state, and hands them to selector. Input that is empty, lacks the
// leading "#" or does not parse is treated as Root.
func Decode[T any](hash string, selector Selector[T]) T {
	path, params := Split(hash)
	return selector(NormalizePath(path), params, ParseQuery(params))
}

// Split returns the path and raw query of hash after sanitizing it.
func Split(hash string) (path, params string) {
	if !strings.HasPrefix(hash, "#") {
		hash = Root
	}

	m := hashPattern.FindStringSubmatch(hash)
	if m == nil {
		m = hashPattern.FindStringSubmatch(Root)
	}
	return m[1], m[2]
}

// ParseQuery parses a form-encoded query into a State. It never fails: pairs
// with malformed escapes keep their raw text, empty keys are skipped and the
// first occurrence of a repeated key wins.
func ParseQuery(query string) State {
	state := State{}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key := unescape(k)
		if key == "" {
			continue
		}
		if _, exists := state[key]; !exists {
			state[key] = unescape(v)
		}
	}
	return state
}

// Canonical returns the hash Encode would produce for what hash decodes to.
// A hash is canonical when Canonical(hash) == hash.
func Canonical(hash string) string {
	return Decode(hash, func(path, _ string, state State) string {
		return Encode(path, state, false)
	})
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

func escapeReadable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f || strings.IndexByte(readableEscapes, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
