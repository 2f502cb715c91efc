package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, SequenceStrategyCounter, cfg.Enrollment.SequenceStrategy)
	assert.Equal(t, "school_year", cfg.Enrollment.StudentYearColumnPreferred)
	assert.Equal(t, "year", cfg.Enrollment.StudentYearColumnLegacy)
	assert.Equal(t, 30*time.Minute, cfg.Enrollment.WizardResumeTTL)
	assert.Equal(t, int64(512*1024), cfg.Signature.MaxBytes)
}

func TestLoadSequenceStrategyFallsBackToCounter(t *testing.T) {
	t.Setenv("SEQUENCE_STRATEGY", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SequenceStrategyCounter, cfg.Enrollment.SequenceStrategy)

	t.Setenv("SEQUENCE_STRATEGY", "MAX")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, SequenceStrategyMax, cfg.Enrollment.SequenceStrategy)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
