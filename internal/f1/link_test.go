package f1

import (
	"testing"

	"github.com/JocelynWS/f1-gen/ies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnb_rrc/internal/rrcnr"
	"gnb_rrc/pkg/config"
)

type delivery struct {
	rnti uint16
	lcid uint32
	pdu  []byte
}

type fakeUplink struct {
	added      []uint16
	addErr     error
	deliveries []delivery
}

func (f *fakeUplink) AddUe(rnti uint16) error {
	f.added = append(f.added, rnti)
	return f.addErr
}

func (f *fakeUplink) DeliverPdu(rnti uint16, lcid uint32, pdu []byte) {
	f.deliveries = append(f.deliveries, delivery{rnti: rnti, lcid: lcid, pdu: pdu})
}

func newTestLink(uplink *fakeUplink) *Link {
	return NewLink(config.Default(), uplink)
}

func TestInitialUlRrcMessageCreatesUeOnSrb0(t *testing.T) {
	uplink := &fakeUplink{}
	link := newTestLink(uplink)

	container := []byte{0x10, 0x20, 0x30}
	err := link.handleInitialUlRrcMessageTransfer(&ies.InitialULRRCMessageTransfer{
		GNBDUUEF1APID: 9,
		CRNTI:         0x4601,
		RRCContainer:  container,
	})
	require.NoError(t, err)

	assert.Equal(t, []uint16{0x4601}, uplink.added)
	require.Len(t, uplink.deliveries, 1)
	assert.Equal(t, uint16(0x4601), uplink.deliveries[0].rnti)
	assert.Equal(t, rrcnr.Srb0, uplink.deliveries[0].lcid)
	assert.Equal(t, container, uplink.deliveries[0].pdu)

	// DU-side id remembered for downlink transfers.
	link.mu.Lock()
	assert.Equal(t, int64(9), link.duUeIds[0x4601])
	link.mu.Unlock()
}

func TestInitialUlRrcMessageDeliversDespiteAddUeError(t *testing.T) {
	uplink := &fakeUplink{addErr: rrcnr.ErrUeAlreadyExists}
	link := newTestLink(uplink)

	err := link.handleInitialUlRrcMessageTransfer(&ies.InitialULRRCMessageTransfer{
		GNBDUUEF1APID: 3,
		CRNTI:         0x17,
		RRCContainer:  []byte{0x01},
	})
	require.NoError(t, err)
	assert.Len(t, uplink.deliveries, 1)
}

func TestUlRrcMessageRoutedBySrbId(t *testing.T) {
	uplink := &fakeUplink{}
	link := newTestLink(uplink)

	err := link.handleUlRrcMessageTransfer(&ies.ULRRCMessageTransfer{
		GNBCUUEF1APID: 0x17,
		GNBDUUEF1APID: 3,
		SRBID:         1,
		RRCContainer:  []byte{0x05},
	})
	require.NoError(t, err)

	require.Len(t, uplink.deliveries, 1)
	assert.Equal(t, uint16(0x17), uplink.deliveries[0].rnti)
	assert.Equal(t, rrcnr.Srb1, uplink.deliveries[0].lcid)
}

func TestWriteSduWithoutAssociation(t *testing.T) {
	link := newTestLink(&fakeUplink{})

	// No DU connected; the failure is logged and swallowed.
	link.WriteSdu(0x46, rrcnr.Srb0, []byte{0x01, 0x02})
}

func TestSendWithoutAssociation(t *testing.T) {
	link := newTestLink(&fakeUplink{})
	assert.Error(t, link.send([]byte{0x00}))
}

func TestCloseWithoutServe(t *testing.T) {
	link := newTestLink(&fakeUplink{})
	assert.NoError(t, link.Close())
}
