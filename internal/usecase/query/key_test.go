package query

import (
	"testing"
	"time"
)

func TestCompare(t *testing.T) {
	earlier := time.Date(1994, 9, 23, 0, 0, 0, 0, time.UTC)
	later := time.Date(1994, 10, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b Key
		want int
	}{
		{"equal strings", Key{"abc"}, Key{"abc"}, 0},
		{"string order", Key{"abc"}, Key{"abd"}, -1},
		{"int order", Key{1994}, Key{2008}, -1},
		{"mixed numeric widths", Key{142}, Key{142.0}, 0},
		{"float order", Key{8.7}, Key{8.5}, 1},
		{"dates", Key{earlier}, Key{later}, -1},
		{"second element breaks tie", Key{"USA", 1994}, Key{"USA", 2008}, -1},
		{"first element wins", Key{"Japan", 2008}, Key{"USA", 1994}, -1},
		{"prefix sorts first", Key{"USA"}, Key{"USA", 1994}, -1},
		{"string lists lexicographic", Key{[]string{"Action", "Crime"}}, Key{[]string{"Crime", "Drama"}}, -1},
		{"list prefix sorts first", Key{[]string{"Crime"}}, Key{[]string{"Crime", "Drama"}}, -1},
		{"nested keys", Key{Key{"USA", 1994}}, Key{Key{"USA", 2008}}, -1},
		{"bools", Key{false}, Key{true}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sign(Compare(tt.a, tt.b)); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			// Antisymmetry.
			if got := sign(Compare(tt.b, tt.a)); got != -tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
