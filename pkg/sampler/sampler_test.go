package sampler

import (
	"slices"
	"testing"
)

func TestStrides(t *testing.T) {
	tests := []struct {
		name           string
		src, dst, cap  int
		wantSS, wantSD int
	}{
		{"small pair", 8, 16, 200, 1, 1},
		{"square 100", 100, 100, 200, 8, 7},
		{"wide dest", 4, 512, 200, 1, 36},
		{"invalid", 0, 5, 200, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss, sd := Strides(tt.src, tt.dst, tt.cap)
			if ss != tt.wantSS || sd != tt.wantSD {
				t.Errorf("Strides(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.src, tt.dst, tt.cap, ss, sd, tt.wantSS, tt.wantSD)
			}
		})
	}
}

func TestSampleCapInvariant(t *testing.T) {
	const limit = 200
	sizes := []int{1, 2, 3, 7, 10, 14, 15, 16, 31, 64, 100, 101, 199, 256, 512, 784, 1000, 4096}
	for _, src := range sizes {
		for _, dst := range sizes {
			conns := Sample(src, dst, limit, 1)
			if len(conns) > limit {
				t.Errorf("Sample(%d, %d) emitted %d > %d", src, dst, len(conns), limit)
			}
			if len(conns) != Count(src, dst, limit) {
				t.Errorf("Count(%d, %d) = %d, Sample emitted %d", src, dst, Count(src, dst, limit), len(conns))
			}
			for _, c := range conns {
				if c.Src < 0 || c.Src >= src || c.Dst < 0 || c.Dst >= dst {
					t.Fatalf("sample %+v out of range for %dx%d", c, src, dst)
				}
				if c.Weight < -1 || c.Weight >= 1 {
					t.Fatalf("weight %v out of [-1,1)", c.Weight)
				}
			}
		}
	}
}

func TestSampleFullCrossProductWhenSmall(t *testing.T) {
	conns := Sample(8, 16, DefaultCap, 7)
	if len(conns) != 128 {
		t.Errorf("len = %d, want full 8x16 = 128", len(conns))
	}
}

func TestSampleDeterministic(t *testing.T) {
	a := Sample(100, 100, 200, 42)
	b := Sample(100, 100, 200, 42)
	if len(a) > 200 {
		t.Errorf("len = %d exceeds cap", len(a))
	}
	if !slices.Equal(a, b) {
		t.Error("same seed should reproduce identical samples")
	}
	c := Sample(100, 100, 200, 43)
	if slices.Equal(a, c) {
		t.Error("different seeds should produce different weights")
	}
}

func TestSampleEmpty(t *testing.T) {
	tests := []struct{ src, dst, cap int }{
		{0, 10, 200},
		{10, -1, 200},
		{10, 10, 0},
		{10, 10, -5},
	}
	for _, tt := range tests {
		if got := Sample(tt.src, tt.dst, tt.cap, 1); len(got) != 0 {
			t.Errorf("Sample(%d, %d, %d) = %d samples, want 0", tt.src, tt.dst, tt.cap, len(got))
		}
	}
}

func TestPairSeed(t *testing.T) {
	if PairSeed(1, 0) == PairSeed(1, 1) {
		t.Error("pairs should get distinct seeds")
	}
	if PairSeed(1, 3) != PairSeed(1, 3) {
		t.Error("PairSeed should be deterministic")
	}
}

func TestCache(t *testing.T) {
	c := NewCache(0)
	if c.Cap() != DefaultCap {
		t.Errorf("Cap() = %d, want %d", c.Cap(), DefaultCap)
	}

	first := c.Get("model-a", 9, 0, 100, 100)
	again := c.Get("model-a", 9, 0, 100, 100)
	if &first[0] != &again[0] {
		t.Error("cached samples should be returned without recomputation")
	}
	_ = c.Get("model-a", 9, 1, 10, 10)
	_ = c.Get("model-b", 9, 0, 10, 10)
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	smaller := c.Get("model-a", 9, 0, 40, 100)
	for _, conn := range smaller {
		if conn.Src >= 40 {
			t.Fatalf("Src %d out of range for 40 source units", conn.Src)
		}
	}
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 after a new unit count", c.Len())
	}

	c.Invalidate("model-a")
	if c.Len() != 1 {
		t.Errorf("Len() after Invalidate = %d, want 1", c.Len())
	}
	rebuilt := c.Get("model-a", 9, 0, 100, 100)
	if !slices.Equal(first, rebuilt) {
		t.Error("recomputing with the same seed should reproduce identical weights")
	}

	c.Invalidate("")
	if c.Len() != 0 {
		t.Errorf("Len() after full Invalidate = %d, want 0", c.Len())
	}
}
