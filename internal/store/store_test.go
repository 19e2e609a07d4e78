package store

import (
	"io"
	"path/filepath"
	"testing"

	"prism/internal/graph"
	"prism/internal/logging"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	log := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Format: logging.JSONFormat, Output: io.Discard})
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"), log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testGraph(id string) *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: id, Type: graph.NodeFile, Name: "auth.py", FilePath: "src/auth.py", LinesOfCode: 50, AbstractionLevel: 1},
		},
		Edges: []graph.Edge{
			{From: "dir:src", To: id, Type: graph.EdgeContains, Weight: 1},
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := testStore(t)
	g := testGraph("file:src/auth.py")

	if err := s.Put("abc123", g); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Get("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("snapshot not found after Put")
	}
	if len(got.Nodes) != 1 || got.Nodes[0] != g.Nodes[0] {
		t.Errorf("nodes round trip mismatch: %+v", got.Nodes)
	}
	if len(got.Edges) != 1 || got.Edges[0] != g.Edges[0] {
		t.Errorf("edges round trip mismatch: %+v", got.Edges)
	}
}

func TestGetMiss(t *testing.T) {
	s := testStore(t)
	_, found, err := s.Get("nope")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("unexpected hit on empty store")
	}
}

func TestPutReplaces(t *testing.T) {
	s := testStore(t)
	if err := s.Put("abc123", testGraph("file:a.py")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("abc123", testGraph("file:b.py")); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Get("abc123")
	if err != nil || !found {
		t.Fatalf("get after replace: found=%v err=%v", found, err)
	}
	if got.Nodes[0].ID != "file:b.py" {
		t.Errorf("replace kept old snapshot: %s", got.Nodes[0].ID)
	}
	if n, _ := s.Count(); n != 1 {
		t.Errorf("count = %d after replace, want 1", n)
	}
}

func TestCorruptPayloadEvicted(t *testing.T) {
	s := testStore(t)
	if err := s.Put("abc123", testGraph("file:a.py")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.conn.Exec(`UPDATE snapshots SET payload = x'00ff00ff' WHERE commit_sha = 'abc123'`); err != nil {
		t.Fatal(err)
	}

	_, found, err := s.Get("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("corrupt snapshot returned as hit")
	}
	if n, _ := s.Count(); n != 0 {
		t.Errorf("corrupt snapshot not evicted, count = %d", n)
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	for _, sha := range []string{"c1", "c2", "c3", "c4", "c5"} {
		if err := s.Put(sha, testGraph("file:"+sha)); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := s.Prune(2)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Errorf("pruned %d snapshots, want 3", deleted)
	}
	if n, _ := s.Count(); n != 2 {
		t.Errorf("count after prune = %d, want 2", n)
	}
}

func TestPruneZeroKeepsAll(t *testing.T) {
	s := testStore(t)
	if err := s.Put("c1", testGraph("file:a.py")); err != nil {
		t.Fatal(err)
	}
	deleted, err := s.Prune(0)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("Prune(0) deleted %d", deleted)
	}
}
