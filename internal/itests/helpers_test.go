package itests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// seed очищает базу и вставляет строки; id раздаются по порядку с 1.
func seed(t *testing.T, stmts ...string) {
	t.Helper()
	ctx := context.Background()
	for _, stmt := range append(append([]string{}, resetSQL...), stmts...) {
		_, err := store.Exec(ctx, stmt)
		require.NoError(t, err, stmt)
	}
}

// seedPeople inserts n people "Person 01".."Person NN"; odd ones are active.
func seedPeople(t *testing.T, n int, extra ...string) {
	t.Helper()
	stmts := []string{`INSERT INTO departments (title) VALUES ('R&D'), ('Sales')`}
	for i := 1; i <= n; i++ {
		status := "active"
		if i%2 == 0 {
			status = "inactive"
		}
		stmts = append(stmts, fmt.Sprintf(
			`INSERT INTO people (name, status, age, department_id) VALUES ('Person %02d', '%s', %d, %d)`,
			i, status, 20+i, 1+i%2,
		))
	}
	seed(t, append(stmts, extra...)...)
}

func doJSON(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	require.NotEmpty(t, testBaseURL, "bootstrap not ready: HTTP server/baseURL missing")

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, testBaseURL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func names(t *testing.T, out map[string]any, key string) []string {
	t.Helper()
	items, ok := out[key].([]any)
	require.True(t, ok, "missing %q list in %v", key, out)
	res := make([]string, len(items))
	for i, it := range items {
		res[i], _ = it.(map[string]any)["name"].(string)
	}
	return res
}

func total(t *testing.T, out map[string]any) float64 {
	t.Helper()
	meta, ok := out["meta"].(map[string]any)
	require.True(t, ok, "missing meta in %v", out)
	n, _ := meta["total"].(float64)
	return n
}
