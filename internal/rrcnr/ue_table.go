package rrcnr

import (
	"time"

	"github.com/lvdund/rrc"
	rrcies "github.com/lvdund/rrc/ies"
)

// ueTable owns every active ueContext, keyed by RNTI. All methods except
// onSetupTimer run under the engine mutex held by the caller; onSetupTimer
// is the timer entry point and takes the mutex itself.
type ueTable struct {
	parent *Engine
	ues    map[uint16]*ueContext
}

func newUeTable(parent *Engine) *ueTable {
	return &ueTable{parent: parent, ues: make(map[uint16]*ueContext)}
}

// addUe creates the context, registers the UE with RLC and PDCP, configures
// its default DRB and arms the setup retry timer. A duplicate RNTI is
// rejected and the existing context is left untouched.
func (t *ueTable) addUe(rnti uint16) error {
	if _, ok := t.ues[rnti]; ok {
		t.parent.Error("Adding user rnti=0x%x (already exists)", rnti)
		return ErrUeAlreadyExists
	}

	u := newUeContext(t.parent, rnti)
	t.ues[rnti] = u

	t.parent.rlc.AddUser(rnti)
	t.parent.pdcp.AddUser(rnti)

	drbLcid := t.parent.cfg.Rrc.CorelessDrbLcid
	t.parent.rlc.AddBearer(rnti, drbLcid, DefaultRlcUmConfig())
	t.parent.pdcp.AddBearer(rnti, drbLcid, DefaultDrbPdcpConfig())

	period := time.Duration(t.parent.cfg.Rrc.SetupRetryPeriodMs) * time.Millisecond
	u.timer = t.armSetupTimer(rnti, period)

	t.parent.Info("Added new user rnti=0x%x", rnti)
	return nil
}

// removeUe cancels the timer and destroys the context. Cancellation comes
// strictly first so no firing can reach a destroyed context; a firing
// already past the ticker finds the map entry gone and does nothing.
func (t *ueTable) removeUe(rnti uint16) {
	u, ok := t.ues[rnti]
	if !ok {
		t.parent.Warn("Removing unknown user rnti=0x%x", rnti)
		return
	}
	u.timer.cancel()
	delete(t.ues, rnti)
	t.parent.Info("Removed user rnti=0x%x", rnti)
}

// removeAll tears down every context, order unspecified.
func (t *ueTable) removeAll() {
	for rnti, u := range t.ues {
		u.timer.cancel()
		delete(t.ues, rnti)
	}
}

func (t *ueTable) lookup(rnti uint16) (*ueContext, bool) {
	u, ok := t.ues[rnti]
	return u, ok
}

func (t *ueTable) count() int {
	return len(t.ues)
}

// retryTimer is a recurring timer bound to an RNTI, not to the context: the
// goroutine captures only the id and the table, and the context is looked up
// again at every firing.
type retryTimer struct {
	ticker *time.Ticker
	stop   chan struct{}
}

func (t *ueTable) armSetupTimer(rnti uint16, period time.Duration) *retryTimer {
	rt := &retryTimer{
		ticker: time.NewTicker(period),
		stop:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-rt.ticker.C:
				t.onSetupTimer(rnti)
			case <-rt.stop:
				return
			}
		}
	}()
	return rt
}

func (rt *retryTimer) cancel() {
	rt.ticker.Stop()
	close(rt.stop)
}

// onSetupTimer runs on the timer goroutine. It enters the engine's
// synchronization domain and re-resolves the context; an RNTI removed since
// the firing is a silent no-op.
func (t *ueTable) onSetupTimer(rnti uint16) {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()

	u, ok := t.ues[rnti]
	if !ok {
		return
	}
	u.sendConnectionSetup()
}

// dispatchPdu routes one inbound PDU to its procedure by logical channel id.
// The channel set is closed: every SRB is an explicit case and anything else
// is a protocol violation, logged and discarded.
func (t *ueTable) dispatchPdu(u *ueContext, lcid uint32, pdu []byte) {
	switch lcid {
	case Srb0:
		t.handleUlCcch(u, pdu)
	case Srb1, Srb2:
		t.parent.Warn("Rx SRB%d PDU for rnti=0x%x: DCCH handling not implemented, discarding", lcid, u.rnti)
		t.parent.metrics.droppedPdus++
	default:
		t.parent.Error("Rx PDU with invalid bearer id: %d (rnti=0x%x)", lcid, u.rnti)
		t.parent.metrics.droppedPdus++
	}
}

// handleUlCcch decodes SRB0 traffic as UL-CCCH. An RRCSetupRequest is
// recognized and logged; it does not change the setup procedure, which
// retries unconditionally until removal.
func (t *ueTable) handleUlCcch(u *ueContext, pdu []byte) {
	var msg rrcies.UL_CCCH_Message
	if err := rrc.Decode(pdu, &msg); err != nil {
		t.parent.Error("Failed to decode UL-CCCH PDU for rnti=0x%x: %v", u.rnti, err)
		t.parent.metrics.droppedPdus++
		return
	}

	if msg.Message.Choice != rrcies.UL_CCCH_MessageType_Choice_C1 || msg.Message.C1 == nil {
		t.parent.Warn("UL-CCCH message without c1 for rnti=0x%x, discarding", u.rnti)
		t.parent.metrics.droppedPdus++
		return
	}

	switch msg.Message.C1.Choice {
	case rrcies.UL_CCCH_MessageType_C1_Choice_RrcSetupRequest:
		req := msg.Message.C1.RrcSetupRequest
		if req == nil {
			t.parent.Warn("Empty RRCSetupRequest for rnti=0x%x", u.rnti)
			return
		}
		t.parent.Info("SRB0 - Rx RRCSetupRequest rnti=0x%x cause=%v",
			u.rnti, req.RrcSetupRequest.EstablishmentCause.Value)
	default:
		t.parent.Warn("Rx unsupported UL-CCCH message %v for rnti=0x%x, discarding",
			msg.Message.C1.Choice, u.rnti)
		t.parent.metrics.droppedPdus++
	}
}
