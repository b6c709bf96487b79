package rrcnr

// siStore holds the broadcast PDUs built at bring-up. All writes happen in
// newSiStore, strictly before any reader exists, so reads take no lock and
// the buffers are never mutated afterwards.
type siStore struct {
	mib []byte
	si  [][]byte // si[0] is SIB1, si[i>0] follow the scheduling table
}

func newSiStore(mib []byte, si [][]byte) *siStore {
	return &siStore{mib: mib, si: si}
}

// readMib copies the cell-wide broadcast PDU into buf. Nothing is written
// when buf is too small.
func (s *siStore) readMib(buf []byte) (int, error) {
	if len(buf) < len(s.mib) {
		return 0, ErrInsufficientSpace
	}
	return copy(buf, s.mib), nil
}

// readSi copies SI message index into buf. Nothing is written on an
// unknown index or a too-small buffer.
func (s *siStore) readSi(index uint32, buf []byte) (int, error) {
	if index >= uint32(len(s.si)) {
		return 0, ErrSiIndexOutOfRange
	}
	if len(buf) < len(s.si[index]) {
		return 0, ErrInsufficientSpace
	}
	return copy(buf, s.si[index]), nil
}

func (s *siStore) numSiMessages() int {
	return len(s.si)
}

func (s *siStore) siByteLengths() []uint32 {
	lens := make([]uint32, len(s.si))
	for i, pdu := range s.si {
		lens[i] = uint32(len(pdu))
	}
	return lens
}
