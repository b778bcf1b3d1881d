package random

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const numDraws = 50

var testSeeds = []uint64{0, 1, 42, 1337, MaxSeed}

func TestNewSeedRejectsTooLarge(t *testing.T) {
	if _, err := NewSeed(MaxSeed + 1); err == nil {
		t.Error("NewSeed(MaxSeed+1) succeeded, want error")
	}
	if _, err := NewSeed(MaxSeed); err != nil {
		t.Errorf("NewSeed(MaxSeed) returned error: %v", err)
	}
}

func TestFastIntSameSeedSameSequence(t *testing.T) {
	for _, value := range testSeeds {
		seed := MustSeed(value)
		first := NewFastInt(seed)
		second := NewFastInt(seed)
		for i := 0; i < numDraws; i++ {
			a, b := first.Next(), second.Next()
			if a != b {
				t.Fatalf("seed %d draw %d: %d != %d", value, i, a, b)
			}
		}
	}
}

func TestUniformIntSameSeedSameSequence(t *testing.T) {
	for _, value := range testSeeds {
		seed := MustSeed(value)
		first, err := NewUniformInt(-10, 10, seed)
		if err != nil {
			t.Fatalf("NewUniformInt: %v", err)
		}
		second, _ := NewUniformInt(-10, 10, seed)
		for i := 0; i < numDraws; i++ {
			a, b := first.Next(), second.Next()
			if a != b {
				t.Fatalf("seed %d draw %d: %d != %d", value, i, a, b)
			}
		}
	}
}

func TestUniformIntStaysInRange(t *testing.T) {
	gen, err := NewUniformInt(5, 7, MustSeed(99))
	if err != nil {
		t.Fatalf("NewUniformInt: %v", err)
	}
	for i := 0; i < numDraws; i++ {
		if v := gen.Next(); v < 5 || v > 7 {
			t.Fatalf("draw %d: %d outside [5, 7]", i, v)
		}
	}
}

func TestUniformIntSingleton(t *testing.T) {
	gen, err := NewUniformInt(3, 3, MustSeed(7))
	if err != nil {
		t.Fatalf("NewUniformInt: %v", err)
	}
	for i := 0; i < numDraws; i++ {
		if v := gen.Next(); v != 3 {
			t.Fatalf("draw %d: %d, want 3", i, v)
		}
	}
}

func TestUniformIntRejectsEmptyRange(t *testing.T) {
	_, err := NewUniformInt(10, 9, MustSeed(0))
	var invalidRange *InvalidRangeError
	if !errors.As(err, &invalidRange) {
		t.Errorf("NewUniformInt(10, 9) = %v, want InvalidRangeError", err)
	}
}

func TestUniformDoubleStaysInRange(t *testing.T) {
	gen := NewUniformDouble(0, 100, MustSeed(42))
	for i := 0; i < numDraws; i++ {
		if v := gen.Next(); v < 0 || v >= 100 {
			t.Fatalf("draw %d: %v outside [0, 100)", i, v)
		}
	}
}

func TestUniformDoubleSingleton(t *testing.T) {
	gen := NewUniformDouble(5, 5, MustSeed(42))
	for i := 0; i < numDraws; i++ {
		if v := gen.Next(); v != 5 {
			t.Fatalf("draw %d: %v, want 5", i, v)
		}
	}
}

func TestShuffleIsDeterministic(t *testing.T) {
	base := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	first := append([]int(nil), base...)
	second := append([]int(nil), base...)
	Shuffle(first, MustSeed(42))
	Shuffle(second, MustSeed(42))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same-seed shuffles differ (-first +second):\n%s", diff)
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	base := []int{1, 2, 3, 4, 5}
	shuffled := append([]int(nil), base...)
	Shuffle(shuffled, MustSeed(3))

	counts := map[int]int{}
	for _, v := range shuffled {
		counts[v]++
	}
	for _, v := range base {
		if counts[v] != 1 {
			t.Fatalf("element %d appears %d times after shuffle", v, counts[v])
		}
	}
}

func TestSeedFactoryIsDeterministic(t *testing.T) {
	first := NewSeedFactory(MustSeed(42)).NextN(numDraws)
	second := NewSeedFactory(MustSeed(42)).NextN(numDraws)

	for i := range first {
		if first[i].Value() != second[i].Value() {
			t.Fatalf("child seed %d: %d != %d", i, first[i].Value(), second[i].Value())
		}
		if first[i].Value() > MaxSeed {
			t.Fatalf("child seed %d: %d above MaxSeed", i, first[i].Value())
		}
	}
}

func TestSeedFactoryDecorrelates(t *testing.T) {
	// Child seeds from one factory should not all collide.
	seeds := NewSeedFactory(MustSeed(7)).NextN(10)
	distinct := map[uint64]bool{}
	for _, s := range seeds {
		distinct[s.Value()] = true
	}
	if len(distinct) < 2 {
		t.Errorf("only %d distinct child seeds out of 10", len(distinct))
	}
}
