package editor

import (
	"testing"
)

func TestMoveByID(t *testing.T) {
	id := func(v int64) int64 { return v }

	tests := []struct {
		name    string
		list    []int64
		dragged int64
		hover   int64
		want    []int64
	}{
		{
			name:    "drag later entry onto earlier position",
			list:    []int64{1, 2, 3, 5},
			dragged: 5,
			hover:   2,
			want:    []int64{1, 5, 2, 3},
		},
		{
			name:    "drag earlier entry onto later position",
			list:    []int64{1, 2, 3, 5},
			dragged: 1,
			hover:   3,
			want:    []int64{2, 3, 1, 5},
		},
		{
			name:    "drag onto last position",
			list:    []int64{1, 2, 3},
			dragged: 1,
			hover:   3,
			want:    []int64{2, 3, 1},
		},
		{
			name:    "dragged equals hover is a no-op",
			list:    []int64{1, 2, 3},
			dragged: 2,
			hover:   2,
			want:    []int64{1, 2, 3},
		},
		{
			name:    "unknown dragged id is a no-op",
			list:    []int64{1, 2, 3},
			dragged: 9,
			hover:   2,
			want:    []int64{1, 2, 3},
		},
		{
			name:    "unknown hover id is a no-op",
			list:    []int64{1, 2, 3},
			dragged: 1,
			hover:   9,
			want:    []int64{1, 2, 3},
		},
		{
			name:    "two entries swap",
			list:    []int64{1, 2},
			dragged: 1,
			hover:   2,
			want:    []int64{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := moveByID(tt.list, id, tt.dragged, tt.hover)
			if len(got) != len(tt.want) {
				t.Fatalf("length changed: got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMoveByIDPreservesMultiset(t *testing.T) {
	id := func(v int64) int64 { return v }
	list := []int64{10, 20, 30, 40, 50}

	moves := []struct{ dragged, hover int64 }{
		{50, 10}, {10, 40}, {30, 30}, {20, 50}, {40, 99}, {99, 40},
	}
	for _, m := range moves {
		list = moveByID(list, id, m.dragged, m.hover)
	}

	seen := make(map[int64]int)
	for _, v := range list {
		seen[v]++
	}
	for _, want := range []int64{10, 20, 30, 40, 50} {
		if seen[want] != 1 {
			t.Fatalf("id %d appears %d times after reorders: %v", want, seen[want], list)
		}
	}
}
