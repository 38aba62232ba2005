package bound

import (
	"errors"
	"testing"

	apperrors "github.com/leeforge/compact/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBound(t *testing.T) {
	tests := []struct {
		spec   string
		width  int
		wSet   bool
		height int
		hSet   bool
	}{
		{"800,600", 800, true, 600, true},
		{"800,", 800, true, 0, false},
		{",600", 0, false, 600, true},
		{"abc,600", 0, false, 600, true},
		{" 1600 , 1200 ", 1600, true, 1200, true},
		{"0,600", 0, false, 600, true},
		{"-5,-5", 0, false, 0, false},
		{",", 0, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			b, err := ParseBound(tt.spec)
			require.NoError(t, err)

			w, wok := b.MaxWidth()
			h, hok := b.MaxHeight()
			assert.Equal(t, tt.wSet, wok)
			assert.Equal(t, tt.hSet, hok)
			if tt.wSet {
				assert.Equal(t, tt.width, w)
			}
			if tt.hSet {
				assert.Equal(t, tt.height, h)
			}
		})
	}
}

func TestParseBoundRejectsFieldCount(t *testing.T) {
	for _, spec := range []string{"800", "", "1,2,3"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseBound(spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidFormat))
		})
	}
}

func TestBoundString(t *testing.T) {
	assert.Equal(t, "800,600", NewBound(800, 600).String())
	assert.Equal(t, "800,", NewBound(800, 0).String())
	assert.Equal(t, ",", NewBound(0, 0).String())
}

func TestBoundContains(t *testing.T) {
	b := NewBound(100, 0)

	assert.True(t, b.Contains(Dimensions{Width: 100, Height: 5000}))
	assert.False(t, b.Contains(Dimensions{Width: 101, Height: 1}))
	assert.True(t, NewBound(0, 0).Unbounded())
}
