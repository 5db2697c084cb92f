package routehandler

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NotFoundTitle is the title of empty loads without a map title.
const NotFoundTitle = "Not Found"

// TitleSink receives document title updates.
type TitleSink interface {
	SetTitle(title string)
}

// staticTitle is the title of a component that does not supply one.
func staticTitle(l *Loaded) string {
	if l.Title != "" {
		return l.Title
	}
	switch v := l.Value.(type) {
	case nil:
		return NotFoundTitle
	case fmt.Stringer:
		return v.String()
	default:
		return humanize(v)
	}
}

// displayName is the fallback for routable components with an empty title.
func displayName(l *Loaded) string {
	if n, ok := l.Value.(Named); ok {
		if name := n.DisplayName(); name != "" {
			return name
		}
	}
	if l.Title != "" {
		return l.Title
	}
	return humanize(l.Value)
}

// humanize turns a value's type name into words: *itemListView becomes
// "Item List View".
func humanize(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return NotFoundTitle
	}

	name := t.Name()
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}

	var b strings.Builder
	prev := rune(0)
	for i, r := range name {
		if r == '_' {
			b.WriteByte(' ')
			prev = r
			continue
		}
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return cases.Title(language.English).String(strings.Join(strings.Fields(b.String()), " "))
}
