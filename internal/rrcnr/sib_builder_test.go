package rrcnr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvdund/rrc"
	rrcies "github.com/lvdund/rrc/ies"

	"gnb_rrc/internal/common/logger"
	"gnb_rrc/pkg/config"
)

func testLogger() *logger.Logger {
	return logger.InitLogger("warn", map[string]string{"mod": "test"})
}

func TestBuildSystemInformationDefault(t *testing.T) {
	cfg := config.Default()

	mib, si, err := buildSystemInformation(cfg, testLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, mib)
	require.Len(t, si, 2) // SIB1 + the one scheduled SI message

	var mibMsg rrcies.BCCH_BCH_Message
	require.NoError(t, rrc.Decode(mib, &mibMsg))
	require.Equal(t, rrcies.BCCH_BCH_MessageType_Choice_Mib, mibMsg.Message.Choice)
	require.NotNil(t, mibMsg.Message.Mib)
	assert.Equal(t, rrcies.MIB_cellBarred_Enum_notBarred, mibMsg.Message.Mib.CellBarred.Value)
	assert.Equal(t, rrcies.MIB_intraFreqReselection_Enum_allowed, mibMsg.Message.Mib.IntraFreqReselection.Value)

	var sib1Msg rrcies.BCCH_DL_SCH_Message
	require.NoError(t, rrc.Decode(si[0], &sib1Msg))
	require.Equal(t, rrcies.BCCH_DL_SCH_MessageType_Choice_C1, sib1Msg.Message.Choice)
	require.NotNil(t, sib1Msg.Message.C1)
	require.Equal(t, rrcies.BCCH_DL_SCH_MessageType_C1_Choice_SystemInformationBlockType1, sib1Msg.Message.C1.Choice)
	sib1 := sib1Msg.Message.C1.SystemInformationBlockType1
	require.NotNil(t, sib1)
	require.Len(t, sib1.CellAccessRelatedInfo.Plmn_IdentityList.Value, 1)
	require.NotNil(t, sib1.Si_SchedulingInfo)
	assert.Len(t, sib1.Si_SchedulingInfo.SchedulingInfoList.Value, 1)

	var siMsg rrcies.BCCH_DL_SCH_Message
	require.NoError(t, rrc.Decode(si[1], &siMsg))
	require.Equal(t, rrcies.BCCH_DL_SCH_MessageType_C1_Choice_SystemInformation, siMsg.Message.C1.Choice)
	sysInfo := siMsg.Message.C1.SystemInformation
	require.NotNil(t, sysInfo)
	require.Equal(t, rrcies.SystemInformation_CriticalExtensions_Choice_SystemInformation, sysInfo.CriticalExtensions.Choice)
	items := sysInfo.CriticalExtensions.SystemInformation.Sib_TypeAndInfo.Value
	require.Len(t, items, 1)
	assert.Equal(t, rrcies.SystemInformation_IEs_sib_TypeAndInfo_Item_Choice_Sib2, items[0].Choice)
}

func TestBuildMibBarredCell(t *testing.T) {
	cfg := config.Default()
	barred := true
	resel := false
	cfg.Cell.Barred = &barred
	cfg.Cell.IntraFreqResel = &resel

	mib, _, err := buildSystemInformation(cfg, testLogger())
	require.NoError(t, err)

	var mibMsg rrcies.BCCH_BCH_Message
	require.NoError(t, rrc.Decode(mib, &mibMsg))
	assert.Equal(t, rrcies.MIB_cellBarred_Enum_barred, mibMsg.Message.Mib.CellBarred.Value)
	assert.Equal(t, rrcies.MIB_intraFreqReselection_Enum_notAllowed, mibMsg.Message.Mib.IntraFreqReselection.Value)
}

func TestBuildSiMessageUnknownSibContent(t *testing.T) {
	cfg := config.Default()
	cfg.Si.Scheduling = []config.SchedulingEntry{
		{PeriodicityRf: 16, Sibs: []uint32{4}},
	}

	_, _, err := buildSystemInformation(cfg, testLogger())
	assert.Error(t, err)
}

func TestBuildSib1RejectsBadPlmn(t *testing.T) {
	cfg := config.Default()
	cfg.Cell.PLMN.MCC = "90a"

	_, _, err := buildSystemInformation(cfg, testLogger())
	assert.Error(t, err)
}

func TestCellIdentityBits(t *testing.T) {
	bs := cellIdentityBits(1)
	assert.Equal(t, uint64(36), bs.NumBits)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x10}, bs.Bytes)

	bs = cellIdentityBits(0xFFFFFFFFF)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xF0}, bs.Bytes)
}
