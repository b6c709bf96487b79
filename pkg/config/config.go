package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Gnb  GnbConfig  `yaml:"gnb"`
	Cell CellConfig `yaml:"cell"`
	Si   SiConfig   `yaml:"si"`
	Rrc  RrcConfig  `yaml:"rrc"`
	F1   F1Config   `yaml:"f1"`
	Log  LogConfig  `yaml:"log"`
}

type GnbConfig struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type PLMNConfig struct {
	MCC string `yaml:"mcc"`
	MNC string `yaml:"mnc"`
}

type CellConfig struct {
	PLMN   PLMNConfig `yaml:"plmn"`
	CellID uint64     `yaml:"cell_id"`
	PCI    uint16     `yaml:"pci"`
	NofPrb uint32     `yaml:"nof_prb"`

	// Barred and IntraFreqResel are pointers so an explicit `false`
	// override survives the merge with defaults.
	Barred         *bool `yaml:"barred"`
	IntraFreqResel *bool `yaml:"intra_freq_reselection"`

	SsbSubcarrierOffset uint8 `yaml:"ssb_subcarrier_offset"`
	CoresetZero         uint8 `yaml:"coreset_zero"`
	SearchSpaceZero     uint8 `yaml:"search_space_zero"`
}

type SiConfig struct {
	// WindowLengthSlots is the SI broadcast window, in slots.
	// Allowed: 5, 10, 20, 40, 80, 160, 320, 640, 1280.
	WindowLengthSlots uint32            `yaml:"window_length"`
	Scheduling        []SchedulingEntry `yaml:"scheduling"`
	Sib2              Sib2Config        `yaml:"sib2"`
}

// SchedulingEntry maps one SI message to its periodicity and the SIB types
// it carries. Entry i produces SI message i+1 (SI message 0 is SIB1).
type SchedulingEntry struct {
	// PeriodicityRf is the SI periodicity in radio frames.
	// Allowed: 8, 16, 32, 64, 128, 256, 512.
	PeriodicityRf uint32 `yaml:"periodicity_rf"`
	// Sibs lists the SIB type numbers carried by this SI message (e.g. 2).
	Sibs []uint32 `yaml:"sibs"`
}

type Sib2Config struct {
	QHystDb uint32 `yaml:"q_hyst_db"`
}

type RrcConfig struct {
	SetupRetryPeriodMs uint32 `yaml:"setup_retry_period_ms"`
	CorelessRnti       uint16 `yaml:"coreless_rnti"`
	CorelessDrbLcid    uint32 `yaml:"coreless_drb_lcid"`
}

type F1Config struct {
	ListenAddr string `yaml:"listen_address"`
	ListenPort int    `yaml:"listen_port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	HexLimit int    `yaml:"hex_limit"`
}

func boolPtr(v bool) *bool { return &v }

// Default returns the fully populated stock configuration. Every field the
// engine reads has a value here; caller overrides are merged on top with
// Effective.
func Default() *Config {
	return &Config{
		Gnb: GnbConfig{
			ID:   1,
			Name: "gnb-cucp",
		},
		Cell: CellConfig{
			PLMN:                PLMNConfig{MCC: "901", MNC: "70"},
			CellID:              1,
			PCI:                 1,
			NofPrb:              25,
			Barred:              boolPtr(false),
			IntraFreqResel:      boolPtr(true),
			SsbSubcarrierOffset: 0,
			CoresetZero:         0,
			SearchSpaceZero:     0,
		},
		Si: SiConfig{
			WindowLengthSlots: 20,
			Scheduling: []SchedulingEntry{
				{PeriodicityRf: 16, Sibs: []uint32{2}},
			},
			Sib2: Sib2Config{QHystDb: 5},
		},
		Rrc: RrcConfig{
			SetupRetryPeriodMs: 5000,
			CorelessRnti:       0x46,
			CorelessDrbLcid:    4,
		},
		F1: F1Config{
			ListenAddr: "127.0.0.1",
			ListenPort: 38472,
		},
		Log: LogConfig{
			Level:    "info",
			HexLimit: 128,
		},
	}
}

// Effective merges overrides onto defaults field by field: a set override
// wins, an unset one falls back to the default. Neither argument is
// modified.
func Effective(defaults, overrides *Config) *Config {
	eff := *defaults
	if overrides == nil {
		return &eff
	}

	if overrides.Gnb.ID != 0 {
		eff.Gnb.ID = overrides.Gnb.ID
	}
	if overrides.Gnb.Name != "" {
		eff.Gnb.Name = overrides.Gnb.Name
	}

	if overrides.Cell.PLMN.MCC != "" {
		eff.Cell.PLMN.MCC = overrides.Cell.PLMN.MCC
	}
	if overrides.Cell.PLMN.MNC != "" {
		eff.Cell.PLMN.MNC = overrides.Cell.PLMN.MNC
	}
	if overrides.Cell.CellID != 0 {
		eff.Cell.CellID = overrides.Cell.CellID
	}
	if overrides.Cell.PCI != 0 {
		eff.Cell.PCI = overrides.Cell.PCI
	}
	if overrides.Cell.NofPrb != 0 {
		eff.Cell.NofPrb = overrides.Cell.NofPrb
	}
	if overrides.Cell.Barred != nil {
		eff.Cell.Barred = overrides.Cell.Barred
	}
	if overrides.Cell.IntraFreqResel != nil {
		eff.Cell.IntraFreqResel = overrides.Cell.IntraFreqResel
	}
	if overrides.Cell.SsbSubcarrierOffset != 0 {
		eff.Cell.SsbSubcarrierOffset = overrides.Cell.SsbSubcarrierOffset
	}
	if overrides.Cell.CoresetZero != 0 {
		eff.Cell.CoresetZero = overrides.Cell.CoresetZero
	}
	if overrides.Cell.SearchSpaceZero != 0 {
		eff.Cell.SearchSpaceZero = overrides.Cell.SearchSpaceZero
	}

	if overrides.Si.WindowLengthSlots != 0 {
		eff.Si.WindowLengthSlots = overrides.Si.WindowLengthSlots
	}
	if len(overrides.Si.Scheduling) > 0 {
		eff.Si.Scheduling = overrides.Si.Scheduling
	}
	if overrides.Si.Sib2.QHystDb != 0 {
		eff.Si.Sib2.QHystDb = overrides.Si.Sib2.QHystDb
	}

	if overrides.Rrc.SetupRetryPeriodMs != 0 {
		eff.Rrc.SetupRetryPeriodMs = overrides.Rrc.SetupRetryPeriodMs
	}
	if overrides.Rrc.CorelessRnti != 0 {
		eff.Rrc.CorelessRnti = overrides.Rrc.CorelessRnti
	}
	if overrides.Rrc.CorelessDrbLcid != 0 {
		eff.Rrc.CorelessDrbLcid = overrides.Rrc.CorelessDrbLcid
	}

	if overrides.F1.ListenAddr != "" {
		eff.F1.ListenAddr = overrides.F1.ListenAddr
	}
	if overrides.F1.ListenPort != 0 {
		eff.F1.ListenPort = overrides.F1.ListenPort
	}

	if overrides.Log.Level != "" {
		eff.Log.Level = overrides.Log.Level
	}
	if overrides.Log.HexLimit != 0 {
		eff.Log.HexLimit = overrides.Log.HexLimit
	}

	return &eff
}

// Load reads caller overrides from a YAML file, merges them onto the stock
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var overrides Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Effective(Default(), &overrides)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

var siPeriodicities = map[uint32]bool{
	8: true, 16: true, 32: true, 64: true, 128: true, 256: true, 512: true,
}

var siWindowLengths = map[uint32]bool{
	5: true, 10: true, 20: true, 40: true, 80: true, 160: true, 320: true,
	640: true, 1280: true,
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func (c *Config) Validate() error {
	if !isDigits(c.Cell.PLMN.MCC) || len(c.Cell.PLMN.MCC) != 3 {
		return fmt.Errorf("cell.plmn.mcc must be 3 digits")
	}
	if !isDigits(c.Cell.PLMN.MNC) || len(c.Cell.PLMN.MNC) < 2 || len(c.Cell.PLMN.MNC) > 3 {
		return fmt.Errorf("cell.plmn.mnc must be 2 or 3 digits")
	}
	if c.Cell.NofPrb == 0 {
		return fmt.Errorf("cell.nof_prb is required")
	}
	if c.Cell.CellID >= 1<<36 {
		return fmt.Errorf("cell.cell_id exceeds 36 bits")
	}
	if c.Cell.SsbSubcarrierOffset > 15 {
		return fmt.Errorf("cell.ssb_subcarrier_offset out of range 0..15")
	}
	if c.Cell.CoresetZero > 15 || c.Cell.SearchSpaceZero > 15 {
		return fmt.Errorf("cell coreset/search space index out of range 0..15")
	}
	if !siWindowLengths[c.Si.WindowLengthSlots] {
		return fmt.Errorf("si.window_length %d not an allowed value", c.Si.WindowLengthSlots)
	}
	for i, entry := range c.Si.Scheduling {
		if !siPeriodicities[entry.PeriodicityRf] {
			return fmt.Errorf("si.scheduling[%d].periodicity_rf %d not an allowed value", i, entry.PeriodicityRf)
		}
		if len(entry.Sibs) == 0 {
			return fmt.Errorf("si.scheduling[%d] maps no SIBs", i)
		}
	}
	if c.Rrc.SetupRetryPeriodMs == 0 {
		return fmt.Errorf("rrc.setup_retry_period_ms is required")
	}
	if c.Rrc.CorelessRnti == 0 {
		return fmt.Errorf("rrc.coreless_rnti is required")
	}
	return nil
}
