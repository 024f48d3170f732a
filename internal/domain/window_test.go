package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGridWindow(t *testing.T) {
	tests := []struct {
		name           string
		length, height int
		expected       Padding
	}{
		{"3x3", 3, 3, Padding{Left: 1, Right: 1, Bottom: 1, Top: 1}},
		{"3x2 biases top", 3, 2, Padding{Left: 1, Right: 1, Bottom: 0, Top: 1}},
		{"2x2 biases right and top", 2, 2, Padding{Left: 0, Right: 1, Bottom: 0, Top: 1}},
		{"1x1 has no padding", 1, 1, Padding{}},
		{"4x5", 4, 5, Padding{Left: 1, Right: 2, Bottom: 2, Top: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewGridWindow(tt.length, tt.height)
			assert.Equal(t, tt.expected, w.Padding)
			assert.Equal(t, tt.length, w.Length)
			assert.Equal(t, tt.height, w.Height)
		})
	}
}

func TestGridWindowMembers(t *testing.T) {
	collect := func(w GridWindow, x, y int) [][2]int {
		var cells [][2]int
		for i, j := range w.Members(x, y) {
			cells = append(cells, [2]int{i, j})
		}
		return cells
	}

	t.Run("enumerates full neighborhood", func(t *testing.T) {
		w := NewGridWindow(3, 2)
		assert.Equal(t, [][2]int{
			{4, 7}, {4, 8},
			{5, 7}, {5, 8},
			{6, 7}, {6, 8},
		}, collect(w, 5, 7))
	})

	t.Run("anchor translates the window", func(t *testing.T) {
		w := NewGridWindow(2, 2)
		assert.Equal(t, [][2]int{
			{0, 0}, {0, 1},
			{1, 0}, {1, 1},
		}, collect(w, 0, 0))
		assert.Equal(t, [][2]int{
			{3, 3}, {3, 4},
			{4, 3}, {4, 4},
		}, collect(w, 3, 3))
	})

	t.Run("restartable", func(t *testing.T) {
		w := NewGridWindow(3, 3)
		seq := w.Members(1, 1)

		first := 0
		for range seq {
			first++
		}
		second := 0
		for range seq {
			second++
		}

		assert.Equal(t, 9, first)
		assert.Equal(t, 9, second)
	})

	t.Run("early break stops enumeration", func(t *testing.T) {
		w := NewGridWindow(3, 3)
		seen := 0
		for range w.Members(0, 0) {
			seen++
			if seen == 4 {
				break
			}
		}
		assert.Equal(t, 4, seen)
	})
}
