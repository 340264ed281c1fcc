package storefront

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewMachineNavigate(t *testing.T) {
	m := NewViewMachine(ViewHome, ViewProduct)
	assert.Equal(t, ViewHome, m.Current())

	require.NoError(t, m.Navigate(ViewProduct))
	assert.Equal(t, ViewProduct, m.Current())
	assert.False(t, m.InFlight())

	require.NoError(t, m.Navigate(ViewHome))
	assert.Equal(t, ViewHome, m.Current())
}

func TestViewMachineUnknownView(t *testing.T) {
	m := NewViewMachine(ViewHome, ViewProduct)
	err := m.Navigate("checkout")
	assert.True(t, errors.Is(err, ErrUnknownView))
	assert.Equal(t, ViewHome, m.Current())
}

func TestViewMachineGuardsConcurrentTransitions(t *testing.T) {
	m := NewViewMachine(ViewHome, ViewProduct)

	tr, err := m.Begin(ViewProduct)
	require.NoError(t, err)
	assert.True(t, m.InFlight())
	assert.Equal(t, ViewHome, m.Current(), "current changes only on completion")

	_, err = m.Begin(ViewHome)
	assert.True(t, errors.Is(err, ErrTransitionInFlight))

	tr.Complete()
	tr.Complete()
	assert.Equal(t, ViewProduct, m.Current())
	assert.False(t, m.InFlight())
}

func TestViewMachineAbort(t *testing.T) {
	m := NewViewMachine(ViewHome, ViewProduct)

	tr, err := m.Begin(ViewProduct)
	require.NoError(t, err)
	tr.Abort()

	assert.Equal(t, ViewHome, m.Current())
	assert.NoError(t, m.Navigate(ViewProduct))
}

func TestCartCounts(t *testing.T) {
	var c Cart
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, c.Add())
	assert.Equal(t, 1, c.Count())
}
