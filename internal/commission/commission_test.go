package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		gross     int64
		rate      float64
		commission int64
		organizer int64
	}{
		{"even split", 1000, 0.05, 50, 950},
		{"half rounds up", 999, 0.05, 50, 949}, // 49.95 -> 50
		{"zero gross", 0, 0.05, 0, 0},
		{"zero rate", 1500, 0, 0, 1500},
		{"full rate", 1500, 1, 1500, 0},
		{"sub-cent commission", 9, 0.05, 0, 9}, // 0.45 -> 0
		{"exact half", 10, 0.05, 1, 9},         // 0.50 -> 1
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, o := Split(tc.gross, tc.rate)
			assert.Equal(t, tc.commission, c)
			assert.Equal(t, tc.organizer, o)
			assert.Equal(t, tc.gross, c+o, "shares must sum to gross")
		})
	}
}
