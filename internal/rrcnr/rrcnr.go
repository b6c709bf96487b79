// Package rrcnr is the NR RRC layer of the gNB control plane: it builds and
// serves the cell's system information, owns the per-UE signalling contexts
// and drives the timer-based connection setup procedure.
package rrcnr

import (
	"fmt"
	"sync"

	"gnb_rrc/internal/common/logger"
	"gnb_rrc/pkg/config"
)

// Engine orchestrates the RRC layer. One mutex is the single
// synchronization domain: every mutating entry point (including timer
// firings) acquires it, so contexts and counters never see concurrent
// access. SI reads are deliberately outside the domain; the store is
// immutable once Init returns.
type Engine struct {
	*logger.Logger

	mu sync.Mutex

	cfg  *config.Config
	mac  MacScheduler
	rlc  RlcLayer
	pdcp PdcpLayer

	sis *siStore
	ues *ueTable

	running bool
	metrics counters
}

func NewEngine() *Engine {
	return &Engine{
		Logger: logger.InitLogger("info", map[string]string{"mod": "rrc"}),
	}
}

// Init derives the effective configuration by merging caller overrides onto
// the stock defaults, builds all system information, configures the MAC
// scheduler with the cell width and broadcast PDU lengths, and creates the
// bootstrap coreless UE with its default DRB. Any failure aborts bring-up
// with no partial state.
func (e *Engine) Init(cfg *config.Config, mac MacScheduler, rlc RlcLayer, pdcp PdcpLayer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}

	effective := config.Effective(config.Default(), cfg)
	if err := effective.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	e.SetHexDumpLimit(effective.Log.HexLimit)

	mib, si, err := buildSystemInformation(effective, e.Logger)
	if err != nil {
		return fmt.Errorf("generate system information: %w", err)
	}

	e.cfg = effective
	e.mac = mac
	e.rlc = rlc
	e.pdcp = pdcp
	e.sis = newSiStore(mib, si)
	e.ues = newUeTable(e)

	e.configureMacCell()

	// Coreless bring-up: one bootstrap UE with a default DRB, no core
	// network behind it.
	e.Info("Creating coreless UE rnti=0x%x with DRB on lcid=%d",
		e.cfg.Rrc.CorelessRnti, e.cfg.Rrc.CorelessDrbLcid)
	if err := e.ues.addUe(e.cfg.Rrc.CorelessRnti); err != nil {
		return fmt.Errorf("add coreless ue: %w", err)
	}

	e.running = true
	e.Info("Started")
	return nil
}

func (e *Engine) configureMacCell() {
	cfg := CellSchedConfig{
		NofPrb:        e.cfg.Cell.NofPrb,
		MibLen:        uint32(len(e.sis.mib)),
		SiMessageLens: e.sis.siByteLengths(),
	}
	e.Info("Configuring MAC scheduler: %d PRBs, %d SI messages", cfg.NofPrb, len(cfg.SiMessageLens))
	e.mac.ConfigureCell(cfg)
}

// Stop tears down every UE context. Idempotent: a second call observes the
// engine already stopped and changes nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	e.ues.removeAll()
	e.Info("Stopped")
}

// AddUe creates a signalling context for an unused RNTI and arms its setup
// retry timer. Called by the lower layers on first contact with a UE.
func (e *Engine) AddUe(rnti uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrNotRunning
	}
	return e.ues.addUe(rnti)
}

// RemoveUe destroys the context and cancels its timer. This is the only way
// a setup procedure ends.
func (e *Engine) RemoveUe(rnti uint16) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.ues.removeUe(rnti)
}

// DeliverPdu is the upward entry point from the link layer. It never
// returns an error: a PDU for an unknown RNTI loses the race with removal
// and is discarded with a warning, everything else is routed by channel id.
func (e *Engine) DeliverPdu(rnti uint16, lcid uint32, pdu []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		e.Warn("Rx PDU on stopped engine, discarding (rnti=0x%x)", rnti)
		return
	}

	e.metrics.rxPdus++
	e.Hex(pdu, "Rx PDU rnti=0x%x lcid=%d", rnti, lcid)

	u, ok := e.ues.lookup(rnti)
	if !ok {
		e.Warn("Discarding PDU for removed rnti=0x%x", rnti)
		e.metrics.droppedPdus++
		return
	}
	e.ues.dispatchPdu(u, lcid, pdu)
}

// ReadMibPdu copies the cell-wide broadcast PDU into buf and returns its
// length. Lock-free: the store never changes after Init.
func (e *Engine) ReadMibPdu(buf []byte) (int, error) {
	if e.sis == nil {
		return 0, ErrNotRunning
	}
	return e.sis.readMib(buf)
}

// ReadSiPdu copies SI message index into buf and returns its length.
// Index 0 is SIB1.
func (e *Engine) ReadSiPdu(index uint32, buf []byte) (int, error) {
	if e.sis == nil {
		return 0, ErrNotRunning
	}
	return e.sis.readSi(index, buf)
}

// GetMetrics returns a snapshot of the engine counters.
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := Metrics{
		SetupPdusTx:      e.metrics.setupPdusTx,
		SetupEncodeFails: e.metrics.setupEncodeFails,
		RxPdus:           e.metrics.rxPdus,
		DroppedPdus:      e.metrics.droppedPdus,
	}
	if e.ues != nil {
		m.ActiveUes = e.ues.count()
	}
	if e.sis != nil {
		m.SiMessages = e.sis.numSiMessages()
	}
	return m
}
