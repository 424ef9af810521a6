package terrain

import "testing"

func TestHash2Deterministic(t *testing.T) {
	first := hash2(10, 20, 42)
	for i := 0; i < 100; i++ {
		if h := hash2(10, 20, 42); h != first {
			t.Fatalf("hash2 not deterministic: got %d, want %d", h, first)
		}
	}
}

func TestHash2DifferentInputs(t *testing.T) {
	if hash2(1, 0, 7) == hash2(2, 0, 7) {
		t.Errorf("hash2 should differ for different X")
	}
	if hash2(0, 1, 7) == hash2(0, 2, 7) {
		t.Errorf("hash2 should differ for different Z")
	}
	if hash2(1, 1, 100) == hash2(1, 1, 200) {
		t.Errorf("hash2 should differ for different seeds")
	}
}

func TestOctaveNoiseRange(t *testing.T) {
	for x := -50; x < 50; x++ {
		for z := -50; z < 50; z++ {
			v := octaveNoise2D(float64(x)*0.173, float64(z)*0.091, 99, 4, 0.5, 2.0)
			if v < 0 || v > 1 {
				t.Fatalf("octaveNoise2D(%d, %d) = %f, outside [0,1]", x, z, v)
			}
		}
	}
}

func TestValueNoiseMatchesLatticeAtIntegers(t *testing.T) {
	for x := int64(-3); x <= 3; x++ {
		got := valueNoise2D(float64(x), 5, 11)
		want := latticeValue(x, 5, 11)
		if got != want {
			t.Errorf("valueNoise2D(%d, 5) = %f, want lattice value %f", x, got, want)
		}
	}
}

func TestNoiseHeightsAmplitude(t *testing.T) {
	g := NewNoiseHeights(3, 40)
	for x := 0; x < 64; x++ {
		for z := 0; z < 64; z++ {
			h := g.Height(x, z)
			if h < -40 || h > 40 {
				t.Fatalf("Height(%d, %d) = %f, outside amplitude", x, z, h)
			}
		}
	}
}
