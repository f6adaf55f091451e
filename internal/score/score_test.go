package score_test

import (
	"testing"

	"github.com/raysh454/a11yscan/internal/score"
)

func TestScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		passes, violations int
		want               float64
	}{
		{0, 0, 100},
		{10, 0, 100},
		{0, 7, 0},
		{1, 2, 33.33},
		{2, 1, 66.67},
		{3, 1, 75},
		{45, 5, 90},
	}
	for _, tt := range tests {
		if got := score.Score(tt.passes, tt.violations); got != tt.want {
			t.Errorf("Score(%d, %d) = %v, want %v", tt.passes, tt.violations, got, tt.want)
		}
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()
	for p := 0; p <= 20; p++ {
		for v := 0; v <= 20; v++ {
			s := score.Score(p, v)
			if s < 0 || s > 100 {
				t.Fatalf("Score(%d, %d) = %v out of range", p, v, s)
			}
		}
	}
}

func TestScore_Monotonic(t *testing.T) {
	t.Parallel()
	for p := 0; p <= 50; p++ {
		for v := 0; v <= 50; v++ {
			s := score.Score(p, v)
			if more := score.Score(p+1, v); more < s {
				t.Errorf("one more pass lowered the score: Score(%d, %d) = %v, Score(%d, %d) = %v", p, v, s, p+1, v, more)
			}
			if worse := score.Score(p, v+1); worse > s {
				t.Errorf("one more violation raised the score: Score(%d, %d) = %v, Score(%d, %d) = %v", p, v, s, p, v+1, worse)
			}
		}
	}
}

func TestRound(t *testing.T) {
	t.Parallel()
	if got := score.Round(81.666666, 2); got != 81.67 {
		t.Errorf("Round = %v", got)
	}
	if got := score.Round(50.5, 0); got != 51 {
		t.Errorf("Round = %v", got)
	}
}
