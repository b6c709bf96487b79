package rrcnr

import (
	"fmt"

	"github.com/lvdund/asn1go/aper"
	"github.com/lvdund/rrc"
	rrcies "github.com/lvdund/rrc/ies"

	"gnb_rrc/internal/common/logger"
	"gnb_rrc/pkg/config"
)

// buildSystemInformation packs the cell-wide MIB and the SI message set from
// the effective configuration. SI message 0 is always SIB1; scheduling entry
// i yields SI message i+1 carrying the SIBs it maps. Content is fixed at
// startup, so any encode failure is a fatal configuration error.
func buildSystemInformation(cfg *config.Config, log *logger.Logger) ([]byte, [][]byte, error) {
	mibPdu, err := buildMib(&cfg.Cell)
	if err != nil {
		return nil, nil, fmt.Errorf("build MIB: %w", err)
	}
	log.Info("Tx MIB (%d B)", len(mibPdu))
	log.Hex(mibPdu, "MIB payload")

	sib1, err := buildSib1(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build SIB1: %w", err)
	}

	siPdus := make([][]byte, 0, len(cfg.Si.Scheduling)+1)

	sib1Pdu, err := rrc.Encode(&rrcies.BCCH_DL_SCH_Message{
		Message: rrcies.BCCH_DL_SCH_MessageType{
			Choice: rrcies.BCCH_DL_SCH_MessageType_Choice_C1,
			C1: &rrcies.BCCH_DL_SCH_MessageType_C1{
				Choice:                      rrcies.BCCH_DL_SCH_MessageType_C1_Choice_SystemInformationBlockType1,
				SystemInformationBlockType1: sib1,
			},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode SIB1: %w", err)
	}
	log.Info("Tx SIB1 (%d B)", len(sib1Pdu))
	log.Hex(sib1Pdu, "SIB1 payload")
	siPdus = append(siPdus, sib1Pdu)

	for i, entry := range cfg.Si.Scheduling {
		siMsg, err := buildSiMessage(cfg, entry)
		if err != nil {
			return nil, nil, fmt.Errorf("build SI message %d: %w", i+1, err)
		}
		pdu, err := rrc.Encode(&rrcies.BCCH_DL_SCH_Message{
			Message: rrcies.BCCH_DL_SCH_MessageType{
				Choice: rrcies.BCCH_DL_SCH_MessageType_Choice_C1,
				C1: &rrcies.BCCH_DL_SCH_MessageType_C1{
					Choice:            rrcies.BCCH_DL_SCH_MessageType_C1_Choice_SystemInformation,
					SystemInformation: siMsg,
				},
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("encode SI message %d: %w", i+1, err)
		}
		log.Info("Tx SI message %d (%d B)", i+1, len(pdu))
		log.Hex(pdu, "SI message %d payload", i+1)
		siPdus = append(siPdus, pdu)
	}

	return mibPdu, siPdus, nil
}

func buildMib(cell *config.CellConfig) ([]byte, error) {
	cellBarred := rrcies.MIB_cellBarred_Enum_notBarred
	if cell.Barred != nil && *cell.Barred {
		cellBarred = rrcies.MIB_cellBarred_Enum_barred
	}
	intraFreqResel := rrcies.MIB_intraFreqReselection_Enum_allowed
	if cell.IntraFreqResel != nil && !*cell.IntraFreqResel {
		intraFreqResel = rrcies.MIB_intraFreqReselection_Enum_notAllowed
	}

	mibMsg := rrcies.BCCH_BCH_Message{
		Message: rrcies.BCCH_BCH_MessageType{
			Choice: rrcies.BCCH_BCH_MessageType_Choice_Mib,
			Mib: &rrcies.MIB{
				SystemFrameNumber: aper.BitString{
					Bytes:   []byte{0x00},
					NumBits: 6,
				},
				SubCarrierSpacingCommon: rrcies.MIB_subCarrierSpacingCommon{
					Value: rrcies.MIB_subCarrierSpacingCommon_Enum_scs15or60,
				},
				Ssb_SubcarrierOffset: uint64(cell.SsbSubcarrierOffset),
				Dmrs_TypeA_Position: rrcies.MIB_dmrs_TypeA_Position{
					Value: rrcies.MIB_dmrs_TypeA_Position_Enum_pos2,
				},
				Pdcch_ConfigSIB1: rrcies.PDCCH_ConfigSIB1{
					ControlResourceSetZero: rrcies.ControlResourceSetZero{Value: uint64(cell.CoresetZero)},
					SearchSpaceZero:        rrcies.SearchSpaceZero{Value: uint64(cell.SearchSpaceZero)},
				},
				CellBarred:           rrcies.MIB_cellBarred{Value: cellBarred},
				IntraFreqReselection: rrcies.MIB_intraFreqReselection{Value: intraFreqResel},
				Spare: aper.BitString{
					Bytes:   []byte{0x00},
					NumBits: 1,
				},
			},
		},
	}

	return rrc.Encode(&mibMsg)
}

func buildSib1(cfg *config.Config) (*rrcies.SIB1, error) {
	plmn, err := plmnIdentity(cfg.Cell.PLMN.MCC, cfg.Cell.PLMN.MNC)
	if err != nil {
		return nil, err
	}

	siWindow, err := siWindowLength(cfg.Si.WindowLengthSlots)
	if err != nil {
		return nil, err
	}

	sib1 := &rrcies.SIB1{
		CellAccessRelatedInfo: rrcies.CellAccessRelatedInfo{
			Plmn_IdentityList: rrcies.PLMN_IdentityInfoList{
				Value: []rrcies.PLMN_IdentityInfo{
					{
						Plmn_IdentityList: rrcies.PLMN_IdentityInfo_plmn_IdentityList{
							Value: []rrcies.PLMN_Identity{plmn},
						},
						CellIdentity: cellIdentityBits(cfg.Cell.CellID),
						CellReservedForOperatorUse: rrcies.PLMN_IdentityInfo_cellReservedForOperatorUse{
							Value: rrcies.PLMN_IdentityInfo_cellReservedForOperatorUse_Enum_notReserved,
						},
					},
				},
			},
		},
	}

	if len(cfg.Si.Scheduling) > 0 {
		schedList := make([]rrcies.SchedulingInfo, 0, len(cfg.Si.Scheduling))
		for _, entry := range cfg.Si.Scheduling {
			periodicity, err := siPeriodicity(entry.PeriodicityRf)
			if err != nil {
				return nil, err
			}
			mapping := make([]rrcies.SIB_TypeInfo, 0, len(entry.Sibs))
			for _, sibType := range entry.Sibs {
				typeInfo, err := sibTypeInfo(sibType)
				if err != nil {
					return nil, err
				}
				mapping = append(mapping, typeInfo)
			}
			schedList = append(schedList, rrcies.SchedulingInfo{
				Si_BroadcastStatus: rrcies.SchedulingInfo_si_BroadcastStatus{
					Value: rrcies.SchedulingInfo_si_BroadcastStatus_Enum_broadcasting,
				},
				Si_Periodicity:  periodicity,
				Sib_MappingInfo: rrcies.SIB_Mapping{Value: mapping},
			})
		}
		sib1.Si_SchedulingInfo = &rrcies.SI_SchedulingInfo{
			SchedulingInfoList: rrcies.SI_SchedulingInfo_schedulingInfoList{
				Value: schedList,
			},
			Si_WindowLength: siWindow,
		}
	}

	return sib1, nil
}

// buildSiMessage assembles the SystemInformation message for one scheduling
// entry: the union of the SIBs it maps, in listed order.
func buildSiMessage(cfg *config.Config, entry config.SchedulingEntry) (*rrcies.SystemInformation, error) {
	items := make([]rrcies.SystemInformation_IEs_sib_TypeAndInfo_Item, 0, len(entry.Sibs))
	for _, sibType := range entry.Sibs {
		switch sibType {
		case 2:
			items = append(items, rrcies.SystemInformation_IEs_sib_TypeAndInfo_Item{
				Choice: rrcies.SystemInformation_IEs_sib_TypeAndInfo_Item_Choice_Sib2,
				Sib2:   buildSib2(&cfg.Si.Sib2),
			})
		default:
			return nil, fmt.Errorf("sib type %d has no configured content", sibType)
		}
	}

	return &rrcies.SystemInformation{
		CriticalExtensions: rrcies.SystemInformation_CriticalExtensions{
			Choice: rrcies.SystemInformation_CriticalExtensions_Choice_SystemInformation,
			SystemInformation: &rrcies.SystemInformation_IEs{
				Sib_TypeAndInfo: rrcies.SystemInformation_IEs_sib_TypeAndInfo{
					Value: items,
				},
			},
		},
	}, nil
}

func buildSib2(cfg *config.Sib2Config) *rrcies.SIB2 {
	sib2 := &rrcies.SIB2{}
	sib2.CellReselectionInfoCommon.Q_Hyst = rrcies.SIB2_cellReselectionInfoCommon_q_Hyst{
		Value: qHyst(cfg.QHystDb),
	}
	return sib2
}

func qHyst(db uint32) rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum {
	switch db {
	case 0:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB0
	case 1:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB1
	case 2:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB2
	case 3:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB3
	case 4:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB4
	case 6:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB6
	case 8:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB8
	default:
		return rrcies.SIB2_cellReselectionInfoCommon_q_Hyst_Enum_dB5
	}
}

func siPeriodicity(rf uint32) (rrcies.SchedulingInfo_si_Periodicity, error) {
	var v rrcies.SchedulingInfo_si_Periodicity_Enum
	switch rf {
	case 8:
		v = rrcies.SchedulingInfo_si_Periodicity_Enum_rf8
	case 16:
		v = rrcies.SchedulingInfo_si_Periodicity_Enum_rf16
	case 32:
		v = rrcies.SchedulingInfo_si_Periodicity_Enum_rf32
	case 64:
		v = rrcies.SchedulingInfo_si_Periodicity_Enum_rf64
	case 128:
		v = rrcies.SchedulingInfo_si_Periodicity_Enum_rf128
	case 256:
		v = rrcies.SchedulingInfo_si_Periodicity_Enum_rf256
	case 512:
		v = rrcies.SchedulingInfo_si_Periodicity_Enum_rf512
	default:
		return rrcies.SchedulingInfo_si_Periodicity{}, fmt.Errorf("si periodicity %d radio frames not encodable", rf)
	}
	return rrcies.SchedulingInfo_si_Periodicity{Value: v}, nil
}

func siWindowLength(slots uint32) (rrcies.SI_SchedulingInfo_si_WindowLength, error) {
	var v rrcies.SI_SchedulingInfo_si_WindowLength_Enum
	switch slots {
	case 5:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s5
	case 10:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s10
	case 20:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s20
	case 40:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s40
	case 80:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s80
	case 160:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s160
	case 320:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s320
	case 640:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s640
	case 1280:
		v = rrcies.SI_SchedulingInfo_si_WindowLength_Enum_s1280
	default:
		return rrcies.SI_SchedulingInfo_si_WindowLength{}, fmt.Errorf("si window length %d slots not encodable", slots)
	}
	return rrcies.SI_SchedulingInfo_si_WindowLength{Value: v}, nil
}

func sibTypeInfo(sibType uint32) (rrcies.SIB_TypeInfo, error) {
	var v rrcies.SIB_TypeInfo_type_Enum
	switch sibType {
	case 2:
		v = rrcies.SIB_TypeInfo_type_Enum_sibType2
	case 3:
		v = rrcies.SIB_TypeInfo_type_Enum_sibType3
	case 4:
		v = rrcies.SIB_TypeInfo_type_Enum_sibType4
	case 5:
		v = rrcies.SIB_TypeInfo_type_Enum_sibType5
	default:
		return rrcies.SIB_TypeInfo{}, fmt.Errorf("sib type %d not schedulable", sibType)
	}
	valueTag := uint64(0)
	return rrcies.SIB_TypeInfo{
		Type:     rrcies.SIB_TypeInfo_type{Value: v},
		ValueTag: &valueTag,
	}, nil
}

// plmnIdentity converts decimal MCC/MNC strings into the RRC PLMN-Identity
// digit lists.
func plmnIdentity(mcc, mnc string) (rrcies.PLMN_Identity, error) {
	mccDigits, err := plmnDigits(mcc)
	if err != nil {
		return rrcies.PLMN_Identity{}, fmt.Errorf("mcc: %w", err)
	}
	mncDigits, err := plmnDigits(mnc)
	if err != nil {
		return rrcies.PLMN_Identity{}, fmt.Errorf("mnc: %w", err)
	}
	return rrcies.PLMN_Identity{
		Mcc: &rrcies.MCC{Value: mccDigits},
		Mnc: rrcies.MNC{Value: mncDigits},
	}, nil
}

func plmnDigits(s string) ([]rrcies.MCC_MNC_Digit, error) {
	digits := make([]rrcies.MCC_MNC_Digit, 0, len(s))
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("non-decimal digit %q", r)
		}
		digits = append(digits, rrcies.MCC_MNC_Digit{Value: uint64(r - '0')})
	}
	return digits, nil
}

// cellIdentityBits left-aligns the 36 bit NR cell identity in 5 bytes.
func cellIdentityBits(id uint64) aper.BitString {
	v := id << 4
	return aper.BitString{
		Bytes: []byte{
			byte(v >> 32),
			byte(v >> 24),
			byte(v >> 16),
			byte(v >> 8),
			byte(v),
		},
		NumBits: 36,
	}
}
