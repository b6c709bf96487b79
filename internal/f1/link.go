// Package f1 carries RRC PDUs between the engine and a DU over an F1-C
// association: UL/DL RRC Message Transfer on SCTP, PPID 62. It stands in
// for the engine's link-layer collaborator; the actual bearers live in the
// DU.
package f1

import (
	"fmt"
	"io"
	"sync"
	"syscall"

	f1ap "github.com/JocelynWS/f1-gen"
	"github.com/JocelynWS/f1-gen/ies"
	"github.com/ishidawataru/sctp"
	"github.com/lvdund/ngap/aper"

	"gnb_rrc/internal/common/logger"
	"gnb_rrc/internal/rrcnr"
	"gnb_rrc/pkg/config"
)

const F1AP_PPID uint32 = 62

// RrcUplink is what the link needs from the RRC engine: first contact
// creates a context, everything else is fire-and-forget delivery.
type RrcUplink interface {
	AddUe(rnti uint16) error
	DeliverPdu(rnti uint16, lcid uint32, pdu []byte)
}

// Link is the server end of one F1-C association.
type Link struct {
	*logger.Logger

	listenAddr string
	listenPort int
	gnbName    string

	rrc RrcUplink

	mu      sync.Mutex
	ln      *sctp.SCTPListener
	conn    *sctp.SCTPConn
	duUeIds map[uint16]int64
}

func NewLink(cfg *config.Config, rrc RrcUplink) *Link {
	return &Link{
		listenAddr: cfg.F1.ListenAddr,
		listenPort: cfg.F1.ListenPort,
		gnbName:    cfg.Gnb.Name,
		rrc:        rrc,
		duUeIds:    make(map[uint16]int64),
		Logger: logger.InitLogger("info", map[string]string{
			"mod": "f1",
		}),
	}
}

// Serve listens for the DU association and reads F1AP messages until the
// link is closed. One association at a time.
func (l *Link) Serve() error {
	laddr, err := sctp.ResolveSCTPAddr("sctp", fmt.Sprintf("%s:%d", l.listenAddr, l.listenPort))
	if err != nil {
		return fmt.Errorf("resolve listen SCTP addr: %w", err)
	}

	ln, err := sctp.ListenSCTPExt("sctp", laddr, sctp.InitMsg{
		NumOstreams:  2,
		MaxInstreams: 2,
	})
	if err != nil {
		return fmt.Errorf("listen SCTP: %w", err)
	}

	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	l.Info("F1-C listening on %s:%d", l.listenAddr, l.listenPort)

	for {
		conn, err := ln.AcceptSCTP()
		if err != nil {
			return fmt.Errorf("accept SCTP: %w", err)
		}

		if err := conn.SetDefaultSentParam(&sctp.SndRcvInfo{PPID: F1AP_PPID}); err != nil {
			l.Error("Set default sent param: %v", err)
			conn.Close()
			continue
		}
		if err := conn.SetReadBuffer(8192); err != nil {
			l.Error("Set read buffer: %v", err)
			conn.Close()
			continue
		}

		l.mu.Lock()
		l.conn = conn
		l.mu.Unlock()

		l.Info("DU association established")
		l.readLoop(conn)

		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()
	}
}

// Close shuts the association and the listener down.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
	if l.ln != nil {
		return l.ln.Close()
	}
	return nil
}

func (l *Link) readLoop(conn *sctp.SCTPConn) {
	buf := make([]byte, 8192)

	for {
		n, info, err := conn.SCTPRead(buf)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				l.Info("Association closed by DU")
				return
			}
			if err == syscall.EAGAIN || err == syscall.EINTR {
				continue
			}
			l.Error("Read error: %v", err)
			return
		}

		if info == nil || info.PPID != F1AP_PPID {
			l.Error("Dropping message with wrong PPID")
			continue
		}

		pdu := make([]byte, n)
		copy(pdu, buf[:n])
		if err := l.handleMessage(pdu); err != nil {
			l.Error("Failed to handle F1AP message: %v", err)
		}
	}
}

func (l *Link) handleMessage(data []byte) error {
	pdu, err, _ := f1ap.F1apDecode(data)
	if err != nil {
		return fmt.Errorf("decode F1AP PDU: %w", err)
	}

	switch pdu.Present {
	case ies.F1apPduInitiatingMessage:
		switch pdu.Message.ProcedureCode.Value {
		case ies.ProcedureCode_F1Setup:
			req, ok := pdu.Message.Msg.(*ies.F1SetupRequest)
			if !ok {
				return fmt.Errorf("unexpected F1 Setup message type")
			}
			return l.handleF1SetupRequest(req)
		case ies.ProcedureCode_InitialULRRCMessageTransfer:
			msg, ok := pdu.Message.Msg.(*ies.InitialULRRCMessageTransfer)
			if !ok {
				return fmt.Errorf("unexpected Initial UL RRC message type")
			}
			return l.handleInitialUlRrcMessageTransfer(msg)
		case ies.ProcedureCode_ULRRCMessageTransfer:
			msg, ok := pdu.Message.Msg.(*ies.ULRRCMessageTransfer)
			if !ok {
				return fmt.Errorf("unexpected UL RRC message type")
			}
			return l.handleUlRrcMessageTransfer(msg)
		default:
			l.Warn("Ignoring initiating message %d", pdu.Message.ProcedureCode.Value)
		}
	default:
		l.Warn("Ignoring F1AP PDU type %d", pdu.Present)
	}

	return nil
}

func (l *Link) handleF1SetupRequest(req *ies.F1SetupRequest) error {
	l.Info("Received F1 Setup Request from DU id=%d name=%s", req.GNBDUID, string(req.GNBDUName))

	resp := ies.F1SetupResponse{
		TransactionID: req.TransactionID,
		GNBCUName:     []byte(l.gnbName),
		GNBCURRCVersion: ies.RRCVersion{
			LatestRRCVersion: aper.BitString{
				Bytes:   []byte{0x20},
				NumBits: 3,
			},
		},
	}

	buf, err := f1ap.F1apEncode(&resp)
	if err != nil {
		return fmt.Errorf("encode F1 Setup Response: %w", err)
	}

	l.Info("Sending F1 Setup Response")
	return l.send(buf)
}

// handleInitialUlRrcMessageTransfer is first contact with a UE: create its
// context, remember the DU-side F1AP id, and deliver the container on SRB0.
func (l *Link) handleInitialUlRrcMessageTransfer(msg *ies.InitialULRRCMessageTransfer) error {
	rnti := uint16(msg.CRNTI)
	l.Info("Initial UL RRC Message Transfer: rnti=0x%x du-ue-id=%d (%d B)",
		rnti, msg.GNBDUUEF1APID, len(msg.RRCContainer))

	l.mu.Lock()
	l.duUeIds[rnti] = msg.GNBDUUEF1APID
	l.mu.Unlock()

	if err := l.rrc.AddUe(rnti); err != nil {
		l.Warn("AddUe rnti=0x%x: %v", rnti, err)
	}
	l.rrc.DeliverPdu(rnti, rrcnr.Srb0, msg.RRCContainer)
	return nil
}

func (l *Link) handleUlRrcMessageTransfer(msg *ies.ULRRCMessageTransfer) error {
	rnti := uint16(msg.GNBCUUEF1APID)
	l.Info("UL RRC Message Transfer: rnti=0x%x srb=%d (%d B)", rnti, msg.SRBID, len(msg.RRCContainer))
	l.rrc.DeliverPdu(rnti, uint32(msg.SRBID), msg.RRCContainer)
	return nil
}

func (l *Link) send(data []byte) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("no DU association")
	}

	info := &sctp.SndRcvInfo{PPID: F1AP_PPID, Stream: 0}
	if _, err := conn.SCTPWrite(data, info); err != nil {
		return fmt.Errorf("SCTP write: %w", err)
	}
	return nil
}

// AddUser implements rrcnr.RlcLayer. The DU owns the actual RLC entities;
// registration is recorded here only for the id mapping.
func (l *Link) AddUser(rnti uint16) {
	l.mu.Lock()
	if _, ok := l.duUeIds[rnti]; !ok {
		l.duUeIds[rnti] = int64(rnti)
	}
	l.mu.Unlock()
	l.Info("Registered rnti=0x%x", rnti)
}

// AddBearer implements rrcnr.RlcLayer. Bearer setup happens DU-side; the
// CU only logs the configuration it handed down.
func (l *Link) AddBearer(rnti uint16, lcid uint32, cfg rrcnr.RlcConfig) {
	l.Info("Bearer for rnti=0x%x lcid=%d (mode=%d sn=%d) configured at DU",
		rnti, lcid, cfg.Mode, cfg.SnFieldLength)
}

// WriteSdu implements rrcnr.RlcLayer: the PDU travels to the DU as a DL RRC
// Message Transfer. Failures are logged only; the wire is fire-and-forget.
func (l *Link) WriteSdu(rnti uint16, lcid uint32, sdu []byte) {
	l.mu.Lock()
	duUeId, ok := l.duUeIds[rnti]
	l.mu.Unlock()
	if !ok {
		duUeId = int64(rnti)
	}

	msg := ies.DLRRCMessageTransfer{
		GNBCUUEF1APID: int64(rnti),
		GNBDUUEF1APID: duUeId,
		SRBID:         int64(lcid),
		RRCContainer:  sdu,
	}

	buf, err := f1ap.F1apEncode(&msg)
	if err != nil {
		l.Error("Encode DL RRC Message Transfer for rnti=0x%x: %v", rnti, err)
		return
	}
	if err := l.send(buf); err != nil {
		l.Error("Send DL RRC Message Transfer for rnti=0x%x: %v", rnti, err)
	}
}
