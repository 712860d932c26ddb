package shard

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		index, count int
		wantErr      bool
	}{
		{0, 1, false},
		{0, 4, false},
		{3, 4, false},
		{4, 4, true},
		{-1, 4, true},
		{0, 0, true},
		{0, -2, true},
	}

	for _, c := range cases {
		err := Validate(c.index, c.count)
		if c.wantErr && err == nil {
			t.Errorf("Validate(%d, %d) expected error, got nil", c.index, c.count)
		}
		if !c.wantErr && err != nil {
			t.Errorf("Validate(%d, %d) unexpected error: %v", c.index, c.count, err)
		}
	}
}

func TestOf_Deterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("video-%04d", i)
		first := Of(id, 7)
		for j := 0; j < 5; j++ {
			if got := Of(id, 7); got != first {
				t.Fatalf("Of(%q, 7) not stable: got %d, want %d", id, got, first)
			}
		}
		if first < 0 || first >= 7 {
			t.Fatalf("Of(%q, 7) = %d, out of range", id, first)
		}
	}
}

func TestOf_PartitionIsDisjointAndExhaustive(t *testing.T) {
	const shardCount = 4
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%011d", i)
	}

	assigned := make(map[string]int)
	for index := 0; index < shardCount; index++ {
		for _, id := range ids {
			if Of(id, shardCount) != index {
				continue
			}
			if prev, ok := assigned[id]; ok {
				t.Fatalf("id %q assigned to both shard %d and %d", id, prev, index)
			}
			assigned[id] = index
		}
	}

	if len(assigned) != len(ids) {
		t.Errorf("partition covered %d of %d ids", len(assigned), len(ids))
	}
}

func TestOf_SingleShardTakesAll(t *testing.T) {
	ids := []string{"dQw4w9WgXcQ", "abc", "", "zzzzzzzzzzz"}
	for _, id := range ids {
		if got := Of(id, 1); got != 0 {
			t.Errorf("Of(%q, 1) = %d, want 0", id, got)
		}
	}
}

func TestPath(t *testing.T) {
	got := Path("/data/audio", "dQw4w9WgXcQ", ".m4a")
	want := filepath.Join("/data/audio", "dQ", "dQw4w9WgXcQ.m4a")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPrefix_ShortID(t *testing.T) {
	if got := Prefix("a"); got != "a" {
		t.Errorf("Prefix(\"a\") = %q, want \"a\"", got)
	}
	if got := Prefix("ab"); got != "ab" {
		t.Errorf("Prefix(\"ab\") = %q, want \"ab\"", got)
	}
}
