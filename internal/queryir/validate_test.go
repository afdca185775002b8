package queryir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	assert.Equal(t, ModeEvents, Options{}.Mode())
	assert.Equal(t, ModeGrouped, Options{GroupBy: GroupByNode}.Mode())
	assert.Equal(t, ModeCount, Options{CountsOnly: true}.Mode())
	assert.Equal(t, ModeCount, Options{GroupBy: GroupByNode, CountsOnly: true}.Mode(), "countsOnly wins")
}

func TestEffectiveGroupLimit(t *testing.T) {
	assert.Equal(t, 1, Options{}.EffectiveGroupLimit())
	assert.Equal(t, 3, Options{GroupLimit: 3}.EffectiveGroupLimit())
}

func TestValidate_Clean(t *testing.T) {
	cases := []Options{
		{},
		{GroupBy: GroupByNode},
		{GroupBy: GroupByNode, GroupLimit: 2, Limit: Int(5), Skip: Int(5)},
		{CountsOnly: true},
		{Until: Int64(10), Limit: Int(1)},
	}

	for _, opts := range cases {
		result, err := Validate(opts)
		require.NoError(t, err)
		assert.Empty(t, result.Warnings, "options %+v", opts)
		assert.NotNil(t, result.Warnings)
	}
}

func TestValidate_InvalidGroupBy(t *testing.T) {
	_, err := Validate(Options{GroupBy: "collection"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
	assert.Contains(t, err.Error(), "collection")
}

func TestValidate_NegativeGroupLimit(t *testing.T) {
	_, err := Validate(Options{GroupBy: GroupByNode, GroupLimit: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestValidate_Warnings(t *testing.T) {
	result, err := Validate(Options{GroupLimit: 2})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "without groupBy")

	result, err = Validate(Options{CountsOnly: true, Limit: Int(3), GroupLimit: 2})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "limit/skip ignored")
	assert.Contains(t, result.Warnings[1], "groupLimit 2 ignored")
}
