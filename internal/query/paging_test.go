package query

import (
	"net/url"
	"testing"

	"RestQueryAPI/internal/model/modeltest"

	"github.com/google/go-cmp/cmp"
)

func TestCompilePager_PageLimitAndDirection(t *testing.T) {
	person := modeltest.Registry(t)["person"]
	p, _ := url.ParseQuery("page=2&limit=10&sort_by=name&desc=true")

	got := CompilePager(person, p, NewJoinPlan(), PagerOptions{MaxLimit: 100})
	want := Paging{
		Page: 2, Limit: 10, Start: 10, Stop: 20,
		SortBy:  []string{"name"},
		Asc:     []bool{false},
		OrderBy: []OrderTerm{{Expr: "main.name", Asc: false}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paging mismatch (-want +got):\n%s", diff)
	}
}

func TestCompilePager_Defaults(t *testing.T) {
	person := modeltest.Registry(t)["person"]
	cases := []struct {
		query      string
		def, max   uint64
		page, lim  uint64
		start, end uint64
	}{
		{"", 0, 0, 1, 0, 0, 0},
		{"page=abc&limit=xyz", 25, 0, 1, 25, 0, 25},
		{"page=-3&limit=-5", 0, 0, 3, 5, 10, 15},
		{"page=0&limit=5000", 0, 1000, 1, 1000, 0, 1000},
		{"limit=0", 20, 100, 1, 20, 0, 20},
		{"page=9223372036854775807&limit=10", 0, 0, 1, 10, 0, 10},
		{"page=922337203685477580&limit=10", 0, 0, 922337203685477580, 10, 9223372036854775790, 9223372036854775800},
	}
	for _, tc := range cases {
		p, _ := url.ParseQuery(tc.query)
		got := CompilePager(person, p, NewJoinPlan(), PagerOptions{DefaultLimit: tc.def, MaxLimit: tc.max})
		if got.Page != tc.page || got.Limit != tc.lim || got.Start != tc.start || got.Stop != tc.end {
			t.Fatalf("%q: got page=%d limit=%d start=%d stop=%d", tc.query, got.Page, got.Limit, got.Start, got.Stop)
		}
	}
}

func TestCompilePager_ThreeWayDirection(t *testing.T) {
	person := modeltest.Registry(t)["person"]
	cases := []struct {
		query string
		want  []bool
	}{
		{"sort_by=name", []bool{false}},
		{"sort_by=name&asc=true", []bool{true}},
		{"sort_by=name&asc=no", []bool{false}},
		{"sort_by=name&desc=false", []bool{true}},
		{"sort_by=name&desc=yes", []bool{false}},
		{"sort_by=name&sort=up", []bool{true}},
		{"sort_by=name&sort=down", []bool{false}},
		{"sort_by=name&sort=DESC", []bool{false}},
		{"sort_by=name&asc=false&sort=anything", []bool{true}},
		{"sort_by=name&sort_by=age&asc=1", []bool{true, false}},
		{"sort_by=name&sort_by=age&sort=down&sort=up", []bool{false, true}},
	}
	for _, tc := range cases {
		p, _ := url.ParseQuery(tc.query)
		got := CompilePager(person, p, NewJoinPlan(), PagerOptions{})
		if diff := cmp.Diff(tc.want, got.Asc); diff != "" {
			t.Fatalf("%q: direction mismatch (-want +got):\n%s", tc.query, diff)
		}
	}
}

func TestCompilePager_RelationSortPlansOuterJoin(t *testing.T) {
	person := modeltest.Registry(t)["person"]
	plan := NewJoinPlan()
	plan.Set("manager", JoinInner)
	p, _ := url.ParseQuery("sort_by=department.title&sort_by=manager.name&asc=true&asc=true")

	got := CompilePager(person, p, plan, PagerOptions{})
	want := []OrderTerm{{Expr: "r_department.title", Asc: true}, {Expr: "self_manager.name", Asc: true}}
	if diff := cmp.Diff(want, got.OrderBy); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if kind, _ := plan.Kind("department"); kind != JoinOuter {
		t.Fatalf("department must be outer joined, got %q", kind)
	}
	if kind, _ := plan.Kind("manager"); kind != JoinInner {
		t.Fatalf("existing inner join must survive, got %q", kind)
	}
}

func TestCompilePager_NeverUnordered(t *testing.T) {
	person := modeltest.Registry(t)["person"]
	p, _ := url.ParseQuery("sort_by=nope&sort_by=department.nope&sort_by=ghost.name&limit=5")

	plan := NewJoinPlan()
	got := CompilePager(person, p, plan, PagerOptions{})
	if diff := cmp.Diff([]OrderTerm{{Expr: "main.id", Asc: true}}, got.OrderBy); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
	if plan.Len() != 0 {
		t.Fatalf("unresolved keys must not plan joins: %v", plan.Names())
	}

	def := []OrderTerm{{Expr: "main.name", Asc: true}}
	got = CompilePager(person, p, NewJoinPlan(), PagerOptions{DefaultOrderBy: def})
	if diff := cmp.Diff(def, got.OrderBy); diff != "" {
		t.Fatalf("default order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompilePager_OverridesAndExclusions(t *testing.T) {
	person := modeltest.Registry(t)["person"]
	p, _ := url.ParseQuery("sort_by=amount&sort_by=name&sort_by=status&desc=true&desc=true&desc=false")
	opts := PagerOptions{
		ParentAlias:      "grp",
		OrderByOverrides: map[string]string{"amount": "grp.amount", "status": "grp.status"},
		Excluded:         func(key string) bool { return key != "status" && key != "amount" },
	}

	got := CompilePager(person, p, NewJoinPlan(), opts)
	want := []OrderTerm{{Expr: "grp.amount", Asc: false}, {Expr: "grp.status", Asc: true}}
	if diff := cmp.Diff(want, got.OrderBy); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	// исключённый ключ отбрасывается даже при наличии override
	opts.Excluded = func(key string) bool { return key == "amount" }
	got = CompilePager(person, p, NewJoinPlan(), opts)
	want = []OrderTerm{{Expr: "grp.name", Asc: false}, {Expr: "grp.status", Asc: true}}
	if diff := cmp.Diff(want, got.OrderBy); diff != "" {
		t.Fatalf("excluded override must be dropped (-want +got):\n%s", diff)
	}
}

func TestCompilePager_Idempotent(t *testing.T) {
	person := modeltest.Registry(t)["person"]
	p, _ := url.ParseQuery("page=3&limit=7&sort_by=department.title&sort_by=name&sort=up")

	first := CompilePager(person, p, NewJoinPlan(), PagerOptions{})
	second := CompilePager(person, p, NewJoinPlan(), PagerOptions{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("not idempotent (-first +second):\n%s", diff)
	}
}

func TestParseOrder(t *testing.T) {
	got := ParseOrder("main", "name, age desc")
	want := []OrderTerm{{Expr: "main.name", Asc: true}, {Expr: "main.age", Asc: false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
