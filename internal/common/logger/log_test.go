package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexDumpLimitIsPerLogger(t *testing.T) {
	a := InitLogger("info", nil)
	b := InitLogger("info", map[string]string{"mod": "other"})

	pdu := make([]byte, 200)

	a.SetHexDumpLimit(2)
	assert.Len(t, a.truncatePdu(pdu), 2)

	// Default limit on an untouched logger.
	assert.Len(t, b.truncatePdu(pdu), defaultHexDumpLimit)

	// Negative limit disables truncation.
	b.SetHexDumpLimit(-1)
	assert.Len(t, b.truncatePdu(pdu), len(pdu))
	assert.Len(t, a.truncatePdu(pdu), 2)
}
