package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "venuectl dev")
}

func TestSlotsRequiresScope(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"slots", "list"})
	assert.Error(t, root.Execute())
}

func TestClock(t *testing.T) {
	d, err := clock("18:30")
	require.NoError(t, err)
	assert.Equal(t, 18*time.Hour+30*time.Minute, d)

	_, err = clock("25:00")
	assert.Error(t, err)
}
