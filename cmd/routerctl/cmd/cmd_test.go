package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ROUTER_LOAD_DEBOUNCE", "5ms")
	t.Setenv("ROUTER_LOADING_DEBOUNCE", "20ms")
	t.Setenv("ROUTER_TITLE_DEBOUNCE", "5ms")
	t.Setenv("ROUTER_STATE_DEBOUNCE", "5ms")

	// Flag values are package variables and survive between executions.
	encodeURI, decodeFormat = false, "table"
	listOutputFormat, listModuleFilter, listScopeFilter = "table", "", ""
	getOutputFormat = "table"
	simulateStart, simulateNoHistory, simulateReplace, simulateTimeout = "", false, false, 5*time.Second
	logLevel = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// rows splits tabular output into whitespace separated fields per line.
func rows(out string) [][]string {
	var result [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		result = append(result, strings.Fields(line))
	}
	return result
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "routerctl v"))
}

func TestHashEncode(t *testing.T) {
	out, err := execute(t, "hash", "encode", "items//", "page=2", "q=a b")
	require.NoError(t, err)
	assert.Equal(t, "#/items?page=2&q=a b\n", out)

	out, err = execute(t, "hash", "encode", "/items", "q=a b", "--uri")
	require.NoError(t, err)
	assert.Equal(t, "#/items?q=a+b\n", out)

	_, err = execute(t, "hash", "encode", "/items", "novalue")
	assert.ErrorContains(t, err, "expected key=value")
}

func TestHashDecode(t *testing.T) {
	out, err := execute(t, "hash", "decode", "#//items/?q=a%20b", "--format", "json")
	require.NoError(t, err)

	var decoded struct {
		Path      string            `json:"path"`
		State     map[string]string `json:"state"`
		Canonical string            `json:"canonical"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "/items", decoded.Path)
	assert.Equal(t, map[string]string{"q": "a b"}, decoded.State)
	assert.Equal(t, "#/items?q=a b", decoded.Canonical)

	out, err = execute(t, "hash", "decode", "#/about")
	require.NoError(t, err)
	assert.Contains(t, out, "Canonical:")
	assert.Contains(t, out, "#/about")

	_, err = execute(t, "hash", "decode", "#/", "--format", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestHashNormalize(t *testing.T) {
	out, err := execute(t, "hash", "normalize", "#items/?b=2&a=1")
	require.NoError(t, err)
	assert.Equal(t, "#/items?a=1&b=2\n", out)
}

func TestSimulate(t *testing.T) {
	out, err := execute(t, "simulate", "--start", "#/products", "/about", "back")
	require.NoError(t, err)

	r := rows(out)
	require.Len(t, r, 5)
	assert.Equal(t, []string{"start", "#/items", "routable", "/items", "Items"}, r[2])
	assert.Equal(t, []string{"/about", "#/about", "static", "/about", "About"}, r[3])
	assert.Equal(t, []string{"back", "#/items", "routable", "/items", "Items"}, r[4])
}

func TestSimulateWithoutHistory(t *testing.T) {
	out, err := execute(t, "simulate", "--start", "#/home", "--no-history")
	require.NoError(t, err)

	r := rows(out)
	require.Len(t, r, 3)
	assert.Equal(t, []string{"start", "#/", "routable", "/", "Home"}, r[2])

	_, err = execute(t, "simulate", "--start", "#/", "--no-history", "back")
	assert.ErrorContains(t, err, "no history entry")
}

func TestTopicsList(t *testing.T) {
	out, err := execute(t, "topics", "list", "--scope", "framework", "--format", "json")
	require.NoError(t, err)

	var listed struct {
		Topics []struct {
			Name  string `json:"name"`
			Scope string `json:"scope"`
		} `json:"topics"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	var names []string
	for _, topic := range listed.Topics {
		assert.Equal(t, "framework", topic.Scope)
		names = append(names, topic.Name)
	}
	assert.Contains(t, names, "routing.route.changed")
	assert.Contains(t, names, "routing.state.changed")
	assert.Contains(t, names, "routing.alert")
	assert.Equal(t, len(names), listed.Count)

	out, err = execute(t, "topics", "list", "--module", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No topics found matching: module 'nothing'")

	_, err = execute(t, "topics", "list", "--scope", "galaxy")
	assert.ErrorContains(t, err, "invalid scope")
}

func TestTopicsGetAndValidate(t *testing.T) {
	out, err := execute(t, "topics", "get", "routing.route.changed")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:        routing.route.changed")
	assert.Contains(t, out, "Module:      (framework)")
	assert.Contains(t, out, "type_name: RouteChange")

	_, err = execute(t, "topics", "get", "routing.nothing")
	assert.ErrorContains(t, err, "topic not found")

	out, err = execute(t, "topics", "validate", "routing.alert")
	require.NoError(t, err)
	assert.Contains(t, out, "Topic 'routing.alert' is valid")

	_, err = execute(t, "topics", "validate", "Bad.Name")
	assert.ErrorContains(t, err, "topic name validation failed")
}
