package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNewMatRejectsBadDimensions(t *testing.T) {
	_, err := NewMat(0, 3, gocv.MatTypeCV64FC1)
	assert.Error(t, err)
}

func TestAccessorsAreBoundsChecked(t *testing.T) {
	m, err := NewMat(2, 3, gocv.MatTypeCV64FC1)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.SetDoubleAt(1, 2, 4.5))
	v, err := m.GetDoubleAt(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)

	assert.Error(t, m.SetDoubleAt(2, 0, 1))
	_, err = m.GetDoubleAt(0, -1)
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	m, err := NewMat(1, 1, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	id := m.ID()

	m.Close()
	m.Close()

	assert.False(t, m.IsValid())
	assert.True(t, m.Empty())
	assert.Equal(t, 0, m.Rows())
	assert.Equal(t, id, m.ID())
	assert.Error(t, m.SetUCharAt(0, 0, 1))
	assert.Error(t, ValidateMatForOperation(m, "test"))
}

func TestCloneAndConvert(t *testing.T) {
	m, err := NewMat(1, 2, gocv.MatTypeCV8UC1)
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.SetUCharAt(0, 1, 200))

	c, err := m.Clone()
	require.NoError(t, err)
	defer c.Close()
	assert.NotEqual(t, m.ID(), c.ID())

	d, err := c.ConvertTo(gocv.MatTypeCV64FC1)
	require.NoError(t, err)
	defer d.Close()
	v, err := d.GetDoubleAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 200.0, v)
}

func TestValidateMatType(t *testing.T) {
	assert.NoError(t, ValidateMatType(gocv.MatTypeCV64FC1, "test"))
	assert.Error(t, ValidateMatType(gocv.MatTypeCV8UC3, "test"))
	assert.Error(t, ValidateDimensions(0, 5, "test"))
	assert.Error(t, ValidateDimensions(40000, 5, "test"))
}
