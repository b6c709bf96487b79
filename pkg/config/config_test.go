package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestEffectiveNilOverrides(t *testing.T) {
	eff := Effective(Default(), nil)
	assert.Equal(t, Default(), eff)
}

func TestEffectiveMergesPerField(t *testing.T) {
	overrides := &Config{}
	overrides.Cell.PCI = 7
	overrides.Cell.PLMN.MCC = "999"
	overrides.Rrc.SetupRetryPeriodMs = 100

	eff := Effective(Default(), overrides)

	assert.Equal(t, uint16(7), eff.Cell.PCI)
	assert.Equal(t, "999", eff.Cell.PLMN.MCC)
	assert.Equal(t, uint32(100), eff.Rrc.SetupRetryPeriodMs)

	// Everything left unset falls back to the default.
	assert.Equal(t, "70", eff.Cell.PLMN.MNC)
	assert.Equal(t, uint32(25), eff.Cell.NofPrb)
	assert.Equal(t, uint16(0x46), eff.Rrc.CorelessRnti)
}

func TestEffectiveExplicitFalseSurvives(t *testing.T) {
	barred := true
	resel := false
	overrides := &Config{}
	overrides.Cell.Barred = &barred
	overrides.Cell.IntraFreqResel = &resel

	eff := Effective(Default(), overrides)

	require.NotNil(t, eff.Cell.Barred)
	assert.True(t, *eff.Cell.Barred)
	require.NotNil(t, eff.Cell.IntraFreqResel)
	assert.False(t, *eff.Cell.IntraFreqResel)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short mcc", func(c *Config) { c.Cell.PLMN.MCC = "12" }},
		{"non-decimal mnc", func(c *Config) { c.Cell.PLMN.MNC = "7a" }},
		{"cell id too wide", func(c *Config) { c.Cell.CellID = 1 << 36 }},
		{"bad si window", func(c *Config) { c.Si.WindowLengthSlots = 13 }},
		{"bad si periodicity", func(c *Config) { c.Si.Scheduling[0].PeriodicityRf = 7 }},
		{"empty sib list", func(c *Config) { c.Si.Scheduling[0].Sibs = nil }},
		{"zero retry period", func(c *Config) { c.Rrc.SetupRetryPeriodMs = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does/not/exist.yml")
	assert.Error(t, err)
}

func TestLoadMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gnb.yml")
	content := []byte(`
cell:
  pci: 42
  plmn:
    mcc: "208"
    mnc: "93"
rrc:
  setup_retry_period_ms: 250
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(42), cfg.Cell.PCI)
	assert.Equal(t, "208", cfg.Cell.PLMN.MCC)
	assert.Equal(t, "93", cfg.Cell.PLMN.MNC)
	assert.Equal(t, uint32(250), cfg.Rrc.SetupRetryPeriodMs)
	assert.Equal(t, uint32(25), cfg.Cell.NofPrb) // default preserved
}

func TestLoadRejectsInvalidOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gnb.yml")
	require.NoError(t, os.WriteFile(path, []byte("si:\n  window_length: 13\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
