package queues_test

import (
	"testing"

	"reviewd/internal/config"
	"reviewd/internal/queues"
)

func newRegistry(t *testing.T) *queues.Registry {
	t.Helper()
	reg, err := queues.NewRegistry([]config.Queue{
		{Name: "spam-flags", Responses: []string{"spam", "not-spam"}, Privilege: "reviewer", DisqualifyResponse: "spam", DisqualifyVotes: 1},
		{Name: "appeals", Responses: []string{"uphold", "overturn"}, Privilege: "senior-reviewer", DisqualifyResponse: "uphold", DisqualifyVotes: 2},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestFindIsCaseInsensitive(t *testing.T) {
	reg := newRegistry(t)
	q, ok := reg.Find("Spam-Flags")
	if !ok || q.Name != "spam-flags" {
		t.Fatalf("expected spam-flags, got %#v ok=%v", q, ok)
	}
	if _, ok := reg.Find("missing"); ok {
		t.Fatal("expected miss for unknown queue")
	}
}

func TestAllPreservesOrder(t *testing.T) {
	reg := newRegistry(t)
	all := reg.All()
	if len(all) != 2 || all[0].Name != "spam-flags" || all[1].Name != "appeals" {
		t.Fatalf("unexpected order: %#v", all)
	}
}

func TestAllowsResponse(t *testing.T) {
	reg := newRegistry(t)
	q, _ := reg.Find("spam-flags")

	cases := []struct {
		response string
		want     bool
	}{
		{"spam", true},
		{"not-spam", true},
		{"skip", true},
		{"uphold", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := q.AllowsResponse(tc.response); got != tc.want {
			t.Errorf("AllowsResponse(%q) = %v, want %v", tc.response, got, tc.want)
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := queues.NewRegistry([]config.Queue{
		{Name: "dupe", Responses: []string{"a"}, Privilege: "reviewer"},
		{Name: "Dupe", Responses: []string{"b"}, Privilege: "reviewer"},
	})
	if err == nil {
		t.Fatal("expected duplicate queue error")
	}
}
