package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockbind/backend/internal/domain"
)

// localEnv points the CLI at an empty in-memory catalog
func localEnv(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("STOCKBIND_CATALOG_DRIVER", "sqlite")
	t.Setenv("STOCKBIND_CATALOG_DSN", ":memory:")
	t.Setenv("STOCKBIND_CATALOG_ENSURE_SCHEMA", "true")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCmd_Local(t *testing.T) {
	localEnv(t)

	out, err := run(t, "", "resolve", "--title", "Wax Polish Tin", "--sku", "UAC0001XX11")
	require.NoError(t, err)

	var res domain.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "UAC0001XX11", res.Code)
	assert.Equal(t, "sku_guess", res.By)
	require.NotNil(t, res.Trace)
	for _, stage := range res.Trace.Stages {
		assert.Empty(t, stage.Candidates, stage.Stage)
	}
}

func TestResolveCmd_DebugTrace(t *testing.T) {
	localEnv(t)

	out, err := run(t, "", "resolve", "--title", "Wax Polish Tin", "--debug", "--pretty")
	require.NoError(t, err)

	var res domain.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.UnresolvedCode, res.Code)
	require.NotNil(t, res.Trace)
	assert.NotEmpty(t, res.Trace.Stages)
	assert.Contains(t, out, "\n  ")
}

func TestResolveCmd_RequiresSomethingToResolve(t *testing.T) {
	localEnv(t)

	_, err := run(t, "", "resolve", "--color", "Olive")
	assert.ErrorIs(t, err, domain.ErrInvalidListing)
}

func TestBatchCmd_Local(t *testing.T) {
	localEnv(t)

	stdin := `{"raw_title":"Wax Polish Tin","sku_guess":"UAC0001XX11"}

{"raw_color":"Navy"}
`
	out, err := run(t, stdin, "batch")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first, second domain.Resolution
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "UAC0001XX11", first.Code)
	assert.Equal(t, domain.UnresolvedCode, second.Code)
	assert.Equal(t, "invalid_listing", second.By)
}

func TestBatchCmd_RejectsBadInput(t *testing.T) {
	localEnv(t)

	_, err := run(t, "{not json}\n", "batch")
	assert.ErrorContains(t, err, "line 1")

	_, err = run(t, "\n\n", "batch")
	assert.ErrorContains(t, err, "no listings")
}

func TestSchemaCmd(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STOCKBIND_CATALOG_DRIVER", "sqlite")
	t.Setenv("STOCKBIND_CATALOG_DSN", "file:"+filepath.Join(t.TempDir(), "catalog.db"))

	out, err := run(t, "", "schema")
	require.NoError(t, err)
	assert.Equal(t, "catalog schema ready (sqlite)\n", out)
}

func TestResolveCmd_Remote(t *testing.T) {
	chdir(t, t.TempDir())

	var gotDebug string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status":"healthy"}`))
		case "/api/v1/resolve":
			gotDebug = r.URL.Query().Get("debug")
			var l domain.ScrapedListing
			if err := json.NewDecoder(r.Body).Decode(&l); err != nil || l.RawTitle == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"code":"MWX0339OL91","by":"color_keyword"}`))
		case "/api/v1/resolve/batch":
			w.Write([]byte(`{"results":[{"code":"MWX0339OL91","by":"color_keyword"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	out, err := run(t, "", "--remote", server.URL, "resolve", "--title", "Barbour Beadnell Wax Jacket", "--debug")
	require.NoError(t, err)
	assert.Equal(t, "true", gotDebug)

	var res domain.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "MWX0339OL91", res.Code)

	out, err = run(t, `{"raw_title":"Barbour Beadnell Wax Jacket"}`+"\n", "--remote", server.URL, "batch")
	require.NoError(t, err)
	assert.Contains(t, out, `"code":"MWX0339OL91"`)
}

func TestReadListings(t *testing.T) {
	listings, err := readListings(strings.NewReader(`{"site":"a","url":"https://a/1"}` + "\n  \n" + `{"raw_title":"b"}`))
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "https://a/1", listings[0].URL)
	assert.Equal(t, "b", listings[1].RawTitle)
}
