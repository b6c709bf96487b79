package rrcnr

import "time"

// Logical channel ids for signalling radio bearers.
const (
	Srb0 uint32 = 0 // CCCH, pre-setup signalling
	Srb1 uint32 = 1 // DCCH
	Srb2 uint32 = 2 // DCCH, low priority
)

// CellSchedConfig carries the cell-wide parameters the engine pushes to the
// MAC scheduler at bring-up: cell width and the byte length of every
// broadcast PDU, so the scheduler can size its SI grants.
type CellSchedConfig struct {
	NofPrb        uint32
	MibLen        uint32
	SiMessageLens []uint32
}

// MacScheduler is the downward interface to the MAC scheduler. Configured
// once during Init.
type MacScheduler interface {
	ConfigureCell(cfg CellSchedConfig)
}

type RlcMode uint8

const (
	RlcModeTm RlcMode = iota
	RlcModeUm
	RlcModeAm
)

// RlcConfig describes one RLC bearer.
type RlcConfig struct {
	Mode          RlcMode
	SnFieldLength uint8
}

// DefaultRlcUmConfig is the NR UM bearer configuration used for default
// DRBs (6 bit sequence numbers).
func DefaultRlcUmConfig() RlcConfig {
	return RlcConfig{Mode: RlcModeUm, SnFieldLength: 6}
}

// PdcpConfig describes one PDCP bearer. A zero DiscardTimer means no
// discard (infinity).
type PdcpConfig struct {
	IsDrb        bool
	SnLen        uint8
	TReordering  time.Duration
	DiscardTimer time.Duration
}

// DefaultDrbPdcpConfig is the PDCP configuration paired with
// DefaultRlcUmConfig for default DRBs.
func DefaultDrbPdcpConfig() PdcpConfig {
	return PdcpConfig{
		IsDrb:        true,
		SnLen:        18,
		TReordering:  500 * time.Millisecond,
		DiscardTimer: 0,
	}
}

// RlcLayer is the downward interface to the link layer. WriteSdu is
// fire-and-forget: delivery failures are the link layer's to log.
type RlcLayer interface {
	AddUser(rnti uint16)
	AddBearer(rnti uint16, lcid uint32, cfg RlcConfig)
	WriteSdu(rnti uint16, lcid uint32, sdu []byte)
}

// PdcpLayer is the downward interface to the header-compression layer.
type PdcpLayer interface {
	AddUser(rnti uint16)
	AddBearer(rnti uint16, lcid uint32, cfg PdcpConfig)
}
