package routehandler

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/nfrund/hashrouter/internal/hashcodec"
	"github.com/nfrund/hashrouter/internal/routing"
)

// DefaultKey is the key of the fallback entry.
const DefaultKey = "*"

// Creator builds the component for an activation. Returning a nil component
// is allowed and routes to an empty view.
type Creator func(ac *ActivationContext) (any, error)

// Matcher matches route paths for non-literal entries.
type Matcher interface {
	// Match reports whether path matches and returns the capture groups,
	// with the whole match at index 0.
	Match(path string) ([]string, bool)
	Type() string
	Pattern() string
}

// PatternMatcher matches paths against a regular expression.
type PatternMatcher struct {
	pattern string
	regex   *regexp.Regexp
}

// NewPatternMatcher compiles pattern.
func NewPatternMatcher(pattern string) (*PatternMatcher, error) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &PatternMatcher{pattern: pattern, regex: regex}, nil
}

// Match implements Matcher.
func (m *PatternMatcher) Match(path string) ([]string, bool) {
	groups := m.regex.FindStringSubmatch(path)
	return groups, groups != nil
}

// Type implements Matcher.
func (m *PatternMatcher) Type() string { return "regex" }

// Pattern implements Matcher.
func (m *PatternMatcher) Pattern() string { return m.pattern }

// Entry is one routing map entry.
type Entry struct {
	// Key is the literal path or the matcher pattern.
	Key string
	// Path identifies the activation. It defaults to Key; entries sharing a
	// Path share a component. A Path different from Key without a Creator is
	// a redirect to Path.
	Path    string
	Creator Creator
	// Title is used for components that do not supply their own.
	Title string
}

type matcherEntry struct {
	matcher Matcher
	entry   Entry
}

// Map resolves routes to activators. It is immutable once built and safe
// for concurrent use.
type Map struct {
	literals map[string]Entry
	matchers []matcherEntry
	fallback *Entry
}

// Activator describes how to serve a route: create a component or redirect.
type Activator struct {
	Route   *routing.Route
	Key     string
	Path    string
	Creator Creator
	Title   string
	// Fallback is set when no entry matched and the default entry is used.
	Fallback bool
}

// IsRedirect reports whether the activator navigates elsewhere instead of
// activating a component.
func (a *Activator) IsRedirect() bool {
	return a != nil && a.Route != nil && a.Path != "" && a.Creator == nil && a.Path != a.Key
}

// Resolve finds the activator for route: a literal entry, else the first
// matching matcher entry (the returned route then carries the match groups),
// else the default entry. A panicking matcher is reported as an error.
func (m *Map) Resolve(route *routing.Route) (act *Activator, err error) {
	defer func() {
		if r := recover(); r != nil {
			act = nil
			err = &ActivationError{Stage: StageResolve, Path: route.Path, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if e, ok := m.literals[route.Path]; ok {
		return newActivator(route, e), nil
	}

	for _, me := range m.matchers {
		if groups, ok := me.matcher.Match(route.Path); ok {
			return newActivator(route.WithMatch(groups), me.entry), nil
		}
	}

	fallback := Entry{Key: DefaultKey, Path: DefaultKey, Creator: emptyCreator}
	if m.fallback != nil {
		fallback = *m.fallback
	}
	act = newActivator(route, fallback)
	act.Fallback = true
	return act, nil
}

// Len returns the number of entries, the default included.
func (m *Map) Len() int {
	n := len(m.literals) + len(m.matchers)
	if m.fallback != nil {
		n++
	}
	return n
}

// Keys lists literal keys, then matcher patterns in order, then the default key.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	for k := range m.literals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, me := range m.matchers {
		keys = append(keys, me.matcher.Pattern())
	}
	if m.fallback != nil {
		keys = append(keys, DefaultKey)
	}
	return keys
}

func newActivator(route *routing.Route, e Entry) *Activator {
	return &Activator{
		Route:   route,
		Key:     e.Key,
		Path:    e.Path,
		Creator: e.Creator,
		Title:   e.Title,
	}
}

func emptyCreator(*ActivationContext) (any, error) { return nil, nil }

// MapBuilder collects entries; Build reports every configuration error at once.
type MapBuilder struct {
	m      *Map
	titles map[string]string
	errs   []error
}

// NewMap starts a routing map.
func NewMap() *MapBuilder {
	return &MapBuilder{
		m:      &Map{literals: make(map[string]Entry)},
		titles: make(map[string]string),
	}
}

// Handle routes the literal path to creator.
func (b *MapBuilder) Handle(path string, creator Creator) *MapBuilder {
	if creator == nil {
		b.errs = append(b.errs, fmt.Errorf("handle %q: nil creator", path))
		return b
	}
	b.addLiteral(Entry{Key: path, Creator: creator})
	return b
}

// HandlePattern routes paths matching the regular expression to creator.
func (b *MapBuilder) HandlePattern(pattern string, creator Creator) *MapBuilder {
	m, err := NewPatternMatcher(pattern)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("pattern %q: %w", pattern, err))
		return b
	}
	return b.HandleMatcher(m, creator)
}

// HandleMatcher routes paths accepted by m to creator.
func (b *MapBuilder) HandleMatcher(m Matcher, creator Creator) *MapBuilder {
	if creator == nil {
		b.errs = append(b.errs, fmt.Errorf("matcher %q: nil creator", m.Pattern()))
		return b
	}
	key := m.Pattern()
	b.m.matchers = append(b.m.matchers, matcherEntry{
		matcher: m,
		entry:   Entry{Key: key, Path: key, Creator: creator},
	})
	return b
}

// Redirect sends the literal path from to the path to. Relative targets
// resolve against from.
func (b *MapBuilder) Redirect(from, to string) *MapBuilder {
	if to == "" {
		b.errs = append(b.errs, fmt.Errorf("redirect %q: empty target", from))
		return b
	}
	if hashcodec.NormalizePath(from) == hashcodec.NormalizePath(to) {
		b.errs = append(b.errs, fmt.Errorf("redirect %q: redirects to itself", from))
		return b
	}
	b.addLiteral(Entry{Key: from, Path: to})
	return b
}

// RedirectPattern sends paths matching pattern to the path to.
func (b *MapBuilder) RedirectPattern(pattern, to string) *MapBuilder {
	m, err := NewPatternMatcher(pattern)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("redirect pattern %q: %w", pattern, err))
		return b
	}
	if to == "" {
		b.errs = append(b.errs, fmt.Errorf("redirect pattern %q: empty target", pattern))
		return b
	}
	b.m.matchers = append(b.m.matchers, matcherEntry{
		matcher: m,
		entry:   Entry{Key: pattern, Path: to},
	})
	return b
}

// Default sets the entry used when nothing else matches.
func (b *MapBuilder) Default(creator Creator) *MapBuilder {
	if creator == nil {
		creator = emptyCreator
	}
	b.m.fallback = &Entry{Key: DefaultKey, Path: DefaultKey, Creator: creator}
	return b
}

// Title sets the fallback document title for the entry with the given key.
func (b *MapBuilder) Title(key, title string) *MapBuilder {
	b.titles[key] = title
	return b
}

// Build validates and returns the map.
func (b *MapBuilder) Build() (*Map, error) {
	for key, title := range b.titles {
		if !b.applyTitle(key, title) {
			b.errs = append(b.errs, fmt.Errorf("title %q: no entry with this key", key))
		}
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("routing map: %w", errors.Join(b.errs...))
	}
	return b.m, nil
}

func (b *MapBuilder) addLiteral(e Entry) {
	e.Key = hashcodec.NormalizePath(e.Key)
	if e.Path == "" {
		e.Path = e.Key
	}
	if _, dup := b.m.literals[e.Key]; dup {
		b.errs = append(b.errs, fmt.Errorf("path %q: already routed", e.Key))
		return
	}
	b.m.literals[e.Key] = e
}

func (b *MapBuilder) applyTitle(key, title string) bool {
	if key == DefaultKey && b.m.fallback != nil {
		b.m.fallback.Title = title
		return true
	}
	if e, ok := b.m.literals[hashcodec.NormalizePath(key)]; ok {
		e.Title = title
		b.m.literals[e.Key] = e
		return true
	}
	for i := range b.m.matchers {
		if b.m.matchers[i].entry.Key == key {
			b.m.matchers[i].entry.Title = title
			return true
		}
	}
	return false
}
