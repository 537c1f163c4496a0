package fileurl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/fileurl/pkg/fileurl"
)

func TestLineRange_ZeroValueIsUnset(t *testing.T) {
	t.Parallel()

	var r fileurl.LineRange

	assert.False(t, r.IsSet())
	assert.Empty(t, r.Anchor())
	assert.Empty(t, r.String())

	_, ok := r.Start()
	assert.False(t, ok)
}

func TestLineRange_End(t *testing.T) {
	t.Parallel()

	end, ok := fileurl.Lines(10, 20).End()
	assert.True(t, ok)
	assert.Equal(t, 20, end)

	_, ok = fileurl.Lines(10, 10).End()
	assert.False(t, ok)

	_, ok = fileurl.Lines(10, 4).End()
	assert.False(t, ok)
}

func TestParseLineRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		anchor string
	}{
		{in: "", anchor: ""},
		{in: "12", anchor: "#L12"},
		{in: "10-20", anchor: "#L10-L20"},
		{in: "L10-L20", anchor: "#L10-L20"},
		{in: " 5 - 6 ", anchor: "#L5-L6"},
		{in: "8-3", anchor: "#L8"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			r, err := fileurl.ParseLineRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.anchor, r.Anchor())
		})
	}
}

func TestParseLineRange_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"abc", "10-", "-4x", "1-2-3"} {
		_, err := fileurl.ParseLineRange(in)
		require.ErrorIs(t, err, fileurl.ErrInvalidLineRange, in)
	}
}
