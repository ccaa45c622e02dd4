package drifttracker

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Mode = "nope"
	cfg.SearchMargin = 0
	cfg.AcceptQuality = 2
	cfg.MaxHuntAttempts = 0
	cfg.MedianWindow = 0
	err := cfg.Validate()
	require.Error(t, err)

	var mErr *multierror.Error
	require.ErrorAs(t, err, &mErr)
	assert.Len(t, mErr.Errors, 5)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Median")
	require.NoError(t, err)
	assert.Equal(t, ModeMedian, m)

	_, err = ParseMode("x")
	assert.Error(t, err)
}
