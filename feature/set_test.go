package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSet(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Set(NewEvent("b"), []float64{1, 2, 3}))
	require.NoError(t, s.Set(NewEvent("a"), []float64{4, 5, 6}))

	err := s.Set(NewEvent("c"), []float64{1})
	assert.ErrorIs(t, err, ErrSetLenMismatch)

	// replacing data keeps a single entry
	require.NoError(t, s.Set(NewEvent("a"), []float64{7, 8, 9}))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, s.Rows())

	data, exists := s.Get(NewEvent("a"))
	require.True(t, exists)
	assert.Equal(t, []float64{7, 8, 9}, data)

	s.Del(NewEvent("a"))
	s.Del(NewEvent("b"))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Rows())
}

func TestSetLabelsSorted(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Set(NewSeasonality("weekly", FourierCompSin, 1), []float64{0}))
	require.NoError(t, s.Set(Intercept(), []float64{1}))
	require.NoError(t, s.Set(NewChangepoint("auto_0", ChangepointCompSlope), []float64{0}))

	labels := s.Labels()
	expected := []Feature{
		NewChangepoint("auto_0", ChangepointCompSlope),
		Intercept(),
		NewSeasonality("weekly", FourierCompSin, 1),
	}
	assert.Equal(t, expected, labels.Labels())

	idx, exists := labels.Index(Intercept())
	assert.True(t, exists)
	assert.Equal(t, 1, idx)

	_, exists = labels.Index(NewEvent("missing"))
	assert.False(t, exists)
}

func TestSetFilterAndUpdate(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Set(Intercept(), []float64{1, 1}))
	require.NoError(t, s.Set(NewEvent("e"), []float64{0, 1}))

	events := s.Filter(FeatureTypeEvent)
	assert.Equal(t, 1, events.Len())
	assert.Equal(t, 2, events.Rows())

	other := NewSet()
	require.NoError(t, other.Update(events))
	_, exists := other.Get(NewEvent("e"))
	assert.True(t, exists)

	assert.Equal(t, 0, s.Filter(FeatureTypeSeasonality).Len())
}

func TestSetMatrix(t *testing.T) {
	assert.Nil(t, NewSet().Matrix())

	s := NewSet()
	require.NoError(t, s.Set(NewEvent("b"), []float64{1, 2}))
	require.NoError(t, s.Set(NewEvent("a"), []float64{3, 4}))

	x := s.Matrix()
	m, n := x.Dims()
	assert.Equal(t, 2, m)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3.0, x.At(0, 0))
	assert.Equal(t, 2.0, x.At(1, 1))
}
