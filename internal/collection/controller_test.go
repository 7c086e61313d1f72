package collection

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"RestQueryAPI/internal/db"
	"RestQueryAPI/internal/db/dbtest"
	"RestQueryAPI/internal/item"
	"RestQueryAPI/internal/model"
	"RestQueryAPI/internal/model/modeltest"

	"github.com/google/go-cmp/cmp"
)

func seeded(t *testing.T) (*Controller, map[string]*model.Model) {
	t.Helper()
	s := dbtest.Open(t)
	dbtest.Exec(t, s,
		`INSERT INTO departments (id, title) VALUES (1, 'R&D'), (2, 'Sales')`,
		`INSERT INTO people (id, name, status, age, department_id) VALUES (1, 'Ann', 'active', 30, 1)`,
		`INSERT INTO people (id, name, status, age, department_id, manager_id) VALUES (2, 'Bob', 'inactive', 40, 2, 1)`,
		`INSERT INTO people (id, name, status, age, department_id, manager_id) VALUES (3, 'Cid', 'active', 25, 1, 1)`,
		`INSERT INTO tasks (id, title, person_id) VALUES (1, 'a', 1), (2, 'b', 1), (3, 'c', 2)`,
	)
	return &Controller{Store: s, MaxLimit: 100}, modeltest.Registry(t)
}

func get(t *testing.T, c *Controller, m *model.Model, raw string) map[string]any {
	t.Helper()
	p, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse query %q: %v", raw, err)
	}
	out, err := c.Get(context.Background(), m, p)
	if err != nil {
		t.Fatalf("Get(%q): %v", raw, err)
	}
	return out
}

func field(out map[string]any, key, col string) []any {
	items, _ := out[key].([]map[string]any)
	vals := make([]any, len(items))
	for i, it := range items {
		vals[i] = it[col]
	}
	return vals
}

func total(out map[string]any) any {
	return out["meta"].(map[string]any)["total"]
}

func TestGet_Scenarios(t *testing.T) {
	c, reg := seeded(t)
	person := reg["person"]

	tests := []struct {
		name      string
		query     string
		wantNames []any
		wantTotal int64
	}{
		{"default order", "", []any{"Ann", "Bob", "Cid"}, 3},
		{"scalar search", "search=an&column_names=name", []any{"Ann"}, 1},
		{"page two desc", "limit=2&page=2&sort_by=name&desc=true", []any{"Ann"}, 3},
		{"sort by relation", "sort_by=department.title&sort_by=name", []any{"Ann", "Cid", "Bob"}, 3},
		{"relation search", `search=["sales"]&column_names=department.title`, []any{"Bob"}, 1},
		{"exact int", "search=25&column_names=age&search_type=1", []any{"Cid"}, 1},
		{"negated", "search=active&column_names=status&search_type=11", []any{"Bob"}, 1},
		{"bad coercion dropped", "search=abc&column_names=age&search_type=1", []any{"Ann", "Bob", "Cid"}, 3},
		{"ids ignore search and paging", "ids=3,1&search=bob&column_names=name&limit=1", []any{"Ann", "Cid"}, 2},
		{"ids none coercible", "ids=x", []any{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := get(t, c, person, tt.query)
			if diff := cmp.Diff(tt.wantNames, field(out, "people", "name")); diff != "" {
				t.Fatalf("names mismatch (-want +got):\n%s", diff)
			}
			if got := total(out); got != tt.wantTotal {
				t.Fatalf("total = %v, want %d", got, tt.wantTotal)
			}
		})
	}
}

func TestGet_StitchedRelations(t *testing.T) {
	c, reg := seeded(t)
	person := reg["person"]

	out := get(t, c, person, "with=tasks&stitch=department")
	if diff := cmp.Diff([]any{"Ann", "Bob", "Cid"}, field(out, "people", "name")); diff != "" {
		t.Fatalf("joined rows must collapse per person (-want +got):\n%s", diff)
	}
	if got := total(out); got != int64(3) {
		t.Fatalf("total = %v, want distinct count 3", got)
	}
	tasks := field(out, "tasks", "title")
	if len(tasks) != 3 {
		t.Fatalf("tasks = %v, nulls must be dropped", tasks)
	}
	// R&D, Sales, R&D: только соседние дубликаты схлопываются
	if diff := cmp.Diff([]any{"R&D", "Sales", "R&D"}, field(out, "department", "title")); diff != "" {
		t.Fatalf("departments mismatch (-want +got):\n%s", diff)
	}

	out = get(t, c, person, "with=department&sort_by=department.title")
	if diff := cmp.Diff([]any{"R&D", "Sales"}, field(out, "department", "title")); diff != "" {
		t.Fatalf("sorted departments mismatch (-want +got):\n%s", diff)
	}

	out = get(t, c, person, "with=manager")
	if diff := cmp.Diff([]any{"Ann"}, field(out, "manager", "name")); diff != "" {
		t.Fatalf("self-referential relation mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_GroupBy(t *testing.T) {
	c, reg := seeded(t)
	person := reg["person"]

	out := get(t, c, person, "group_by=status&sort_by=amount&desc=true")
	want := []map[string]any{
		{"status": "active", "amount": int64(2)},
		{"status": "inactive", "amount": int64(1)},
	}
	if diff := cmp.Diff(want, out["group_by"]); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
	if got := total(out); got != int64(2) {
		t.Fatalf("total = %v, want group count 2", got)
	}
	if people := out["people"].([]map[string]any); len(people) != 0 {
		t.Fatalf("grouped response must have no primary items, got %v", people)
	}

	out = get(t, c, person, "group_by=status&search=2&column_names=amount&search_type=1")
	if diff := cmp.Diff([]map[string]any{{"status": "active", "amount": int64(2)}}, out["group_by"]); diff != "" {
		t.Fatalf("amount filter mismatch (-want +got):\n%s", diff)
	}
	if got := total(out); got != int64(1) {
		t.Fatalf("total = %v, want 1", got)
	}

	// scalar search keeps OR between row columns and amount
	out = get(t, c, person, "group_by=status&search=2&column_names=status,amount")
	if diff := cmp.Diff([]map[string]any{{"status": "active", "amount": int64(2)}}, out["group_by"]); diff != "" {
		t.Fatalf("amount-or-column mismatch (-want +got):\n%s", diff)
	}
	if got := total(out); got != int64(1) {
		t.Fatalf("total = %v, want 1", got)
	}
	out = get(t, c, person, "group_by=status&search=inact&column_names=status,amount")
	if diff := cmp.Diff([]map[string]any{{"status": "inactive", "amount": int64(1)}}, out["group_by"]); diff != "" {
		t.Fatalf("column-or-amount mismatch (-want +got):\n%s", diff)
	}

	out = get(t, c, person, "group_by=department_id&with=department&with=tasks")
	if diff := cmp.Diff([]any{"R&D", "Sales"}, field(out, "department", "title")); diff != "" {
		t.Fatalf("grouped relation mismatch (-want +got):\n%s", diff)
	}
	if _, ok := out["tasks"]; ok {
		t.Fatalf("relations outside grouping must not be stitched")
	}

	out = get(t, c, person, `group_by=status&search=["r%26d"]&column_names=department.title`)
	want = []map[string]any{
		{"status": "active", "amount": int64(2)},
	}
	if diff := cmp.Diff(want, out["group_by"]); diff != "" {
		t.Fatalf("search inside grouping mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_ListItemTransformAndCountCache(t *testing.T) {
	c, reg := seeded(t)
	person := reg["person"]
	cache := NewMemoryCountCache(time.Minute)
	c.Counts = cache
	c.ListItemTransform = func(_ *model.Model, item map[string]any) map[string]any {
		item["display"] = strings.ToUpper(item["name"].(string))
		return item
	}
	items := &item.Controller{Store: c.Store, Counts: cache}

	out := get(t, c, person, "")
	if diff := cmp.Diff([]any{"ANN", "BOB", "CID"}, field(out, "people", "display")); diff != "" {
		t.Fatalf("transform not applied (-want +got):\n%s", diff)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", cache.Len())
	}

	if _, err := items.Post(context.Background(), person, []byte(`{"person": {"name": "Dan"}}`)); err != nil {
		t.Fatalf("Post: %v", err)
	}
	out = get(t, c, person, "")
	if n := len(field(out, "people", "name")); total(out) != int64(n) || n != 4 {
		t.Fatalf("total %v must match %d rows after a write", total(out), n)
	}

	if _, err := items.Delete(context.Background(), person, "3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	out = get(t, c, person, "")
	if n := len(field(out, "people", "name")); total(out) != int64(n) || n != 3 {
		t.Fatalf("total %v must match %d rows after a delete", total(out), n)
	}
}

func TestGet_NoCacheRecountsEveryRequest(t *testing.T) {
	c, reg := seeded(t)
	person := reg["person"]

	get(t, c, person, "")
	dbtest.Exec(t, c.Store, `INSERT INTO people (id, name) VALUES (4, 'Dan')`)
	out := get(t, c, person, "")
	if got := total(out); got != int64(4) {
		t.Fatalf("total = %v, want 4", got)
	}
}

func TestGet_HugePageFallsBack(t *testing.T) {
	c, reg := seeded(t)
	out := get(t, c, reg["person"], "page=9223372036854775807&limit=10")
	if diff := cmp.Diff([]any{"Ann", "Bob", "Cid"}, field(out, "people", "name")); diff != "" {
		t.Fatalf("overflowing page must fall back to page 1 (-want +got):\n%s", diff)
	}
}

// recordingStore captures compiled SQL and returns canned rows.
type recordingStore struct {
	queries []string
	args    [][]any
	rows    [][]any
	count   []any
}

func (s *recordingStore) Query(_ context.Context, sql string, args ...any) ([][]any, error) {
	s.queries = append(s.queries, sql)
	s.args = append(s.args, args)
	return s.rows, nil
}

func (s *recordingStore) QueryRow(_ context.Context, sql string, args ...any) ([]any, error) {
	s.queries = append(s.queries, sql)
	s.args = append(s.args, args)
	return s.count, nil
}

func (s *recordingStore) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (s *recordingStore) Dialect() db.Dialect                                 { return db.Postgres }
func (s *recordingStore) Close()                                              {}

func TestGet_PostgresSQL(t *testing.T) {
	person := modeltest.Registry(t)["person"]

	t.Run("grouped", func(t *testing.T) {
		s := &recordingStore{count: []any{int64(2)}}
		c := &Controller{Store: s}
		p, _ := url.ParseQuery("group_by=status&sort_by=amount&desc=true")
		if _, err := c.Get(context.Background(), person, p); err != nil {
			t.Fatalf("Get: %v", err)
		}
		sub := "(SELECT COUNT(*) AS amount, main.status AS status FROM people AS main GROUP BY main.status) AS grp"
		want := []string{
			"SELECT COUNT(*) FROM " + sub,
			"SELECT grp.amount, grp.status FROM " + sub + " ORDER BY grp.amount DESC",
		}
		if diff := cmp.Diff(want, s.queries); diff != "" {
			t.Fatalf("sql mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("grouped or joint", func(t *testing.T) {
		s := &recordingStore{count: []any{int64(1)}}
		c := &Controller{Store: s}
		p, _ := url.ParseQuery("group_by=status&search=2&column_names=status,amount")
		if _, err := c.Get(context.Background(), person, p); err != nil {
			t.Fatalf("Get: %v", err)
		}
		sub := "(SELECT COUNT(*) AS amount, main.status AS status," +
			" MAX(CASE WHEN main.status ILIKE $1 THEN 1 ELSE 0 END) AS search_matched" +
			" FROM people AS main GROUP BY main.status) AS grp"
		want := "SELECT COUNT(*) FROM " + sub +
			" WHERE (grp.search_matched = 1 OR CAST(grp.amount AS TEXT) ILIKE $2)"
		if s.queries[0] != want {
			t.Fatalf("count sql\n got %s\nwant %s", s.queries[0], want)
		}
		if diff := cmp.Diff([]any{"%2%", "%2%"}, s.args[0]); diff != "" {
			t.Fatalf("count args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("joined count is distinct", func(t *testing.T) {
		s := &recordingStore{count: []any{int64(1)}}
		c := &Controller{Store: s}
		p, _ := url.ParseQuery(`search=["sales"]&column_names=department.title`)
		if _, err := c.Get(context.Background(), person, p); err != nil {
			t.Fatalf("Get: %v", err)
		}
		want := "SELECT COUNT(DISTINCT main.id) FROM people AS main" +
			" JOIN departments AS r_department ON main.department_id = r_department.id" +
			" WHERE r_department.title ILIKE $1"
		if s.queries[0] != want {
			t.Fatalf("count sql\n got %s\nwant %s", s.queries[0], want)
		}
		if diff := cmp.Diff([]any{"%sales%"}, s.args[1]); diff != "" {
			t.Fatalf("row args mismatch (-want +got):\n%s", diff)
		}
		if !strings.HasSuffix(s.queries[1], "WHERE r_department.title ILIKE $1 ORDER BY main.id ASC") {
			t.Fatalf("unexpected row sql %s", s.queries[1])
		}
	})
}
