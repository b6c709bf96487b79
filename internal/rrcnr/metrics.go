package rrcnr

// Metrics is a point-in-time snapshot of the engine counters.
type Metrics struct {
	ActiveUes        int
	SiMessages       int
	SetupPdusTx      uint64
	SetupEncodeFails uint64
	RxPdus           uint64
	DroppedPdus      uint64
}

// counters is the mutable backing state, touched only under the engine
// mutex.
type counters struct {
	setupPdusTx      uint64
	setupEncodeFails uint64
	rxPdus           uint64
	droppedPdus      uint64
}
