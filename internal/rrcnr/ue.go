package rrcnr

import (
	"github.com/lvdund/rrc"
	rrcies "github.com/lvdund/rrc/ies"
)

// ueContext holds one UE's control-plane state. Every method runs under the
// engine mutex; the context itself takes no locks.
type ueContext struct {
	parent *Engine
	rnti   uint16

	// transactionId wraps modulo 4; the value sent on the k-th setup
	// attempt since creation is k mod 4.
	transactionId uint64

	timer *retryTimer
}

func newUeContext(parent *Engine, rnti uint16) *ueContext {
	return &ueContext{parent: parent, rnti: rnti}
}

// encodeDlCcch is swapped out in tests to exercise the encode failure path.
var encodeDlCcch = func(msg *rrcies.DL_CCCH_Message) ([]byte, error) {
	return rrc.Encode(msg)
}

// sendConnectionSetup builds and transmits one RRCSetup on SRB0: the current
// transaction id plus a minimal default bearer configuration (SRB1 and one
// DRB with PDCP ciphering disabled). There is no acknowledgment path; the
// retry timer keeps calling this until the context is removed.
func (u *ueContext) sendConnectionSetup() {
	transactionId := u.transactionId % 4
	u.transactionId++

	dlCcchMsg := rrcies.DL_CCCH_Message{
		Message: rrcies.DL_CCCH_MessageType{
			Choice: rrcies.DL_CCCH_MessageType_Choice_C1,
			C1: &rrcies.DL_CCCH_MessageType_C1{
				Choice: rrcies.DL_CCCH_MessageType_C1_Choice_RrcSetup,
				RrcSetup: &rrcies.RRCSetup{
					Rrc_TransactionIdentifier: rrcies.RRC_TransactionIdentifier{Value: transactionId},
					CriticalExtensions: rrcies.RRCSetup_CriticalExtensions{
						Choice: rrcies.RRCSetup_CriticalExtensions_Choice_RrcSetup,
						RrcSetup: &rrcies.RRCSetup_IEs{
							RadioBearerConfig: defaultRadioBearerConfig(),
						},
					},
				},
			},
		},
	}

	pdu, err := encodeDlCcch(&dlCcchMsg)
	if err != nil {
		// Transient: drop this attempt, the timer fires again.
		u.parent.Error("Failed to encode RRCSetup for rnti=0x%x, discarding: %v", u.rnti, err)
		u.parent.metrics.setupEncodeFails++
		return
	}

	u.parent.Info("SRB0 - Tx RRCSetup rnti=0x%x tid=%d (%d B)", u.rnti, transactionId, len(pdu))
	u.parent.Hex(pdu, "RRCSetup payload rnti=0x%x", u.rnti)

	u.parent.rlc.WriteSdu(u.rnti, Srb0, pdu)
	u.parent.metrics.setupPdusTx++
}

// defaultRadioBearerConfig is the bearer set offered in every RRCSetup:
// SRB1 with defaults and DRB1 with ciphering disabled.
func defaultRadioBearerConfig() rrcies.RadioBearerConfig {
	return rrcies.RadioBearerConfig{
		Srb_ToAddModList: &rrcies.SRB_ToAddModList{
			Value: []rrcies.SRB_ToAddMod{
				{
					Srb_Identity: rrcies.SRB_Identity{Value: 1},
				},
			},
		},
		Drb_ToAddModList: &rrcies.DRB_ToAddModList{
			Value: []rrcies.DRB_ToAddMod{
				{
					Drb_Identity: rrcies.DRB_Identity{Value: 1},
					Pdcp_Config: &rrcies.PDCP_Config{
						CipheringDisabled: &rrcies.PDCP_Config_cipheringDisabled{
							Value: rrcies.PDCP_Config_cipheringDisabled_Enum_true,
						},
					},
				},
			},
		},
	}
}
