package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortexion256/caremax/core"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 3, cfg.Driver.MaxToolRounds)
	assert.Equal(t, 60*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 2, cfg.Verify.Attempts)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "openai", cfg.Model.Provider)
}

func TestValidateRejectsUnsafeBounds(t *testing.T) {
	cfg := Default()
	cfg.Driver.MaxToolRounds = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Verify.Attempts = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Model.Timeout = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateSheetLabels(t *testing.T) {
	cfg := Default()
	cfg.Sheets = []core.SheetEntry{{Label: "prices", UseWhen: "pricing questions"}}
	assert.NoError(t, cfg.Validate())

	cfg.Sheets = append(cfg.Sheets, core.SheetEntry{Label: "prices"})
	assert.Error(t, cfg.Validate())

	cfg.Sheets = []core.SheetEntry{{UseWhen: "no label"}}
	assert.Error(t, cfg.Validate())
}
