package rrcnr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiStoreRead(t *testing.T) {
	s := newSiStore([]byte{0x01, 0x02, 0x03}, [][]byte{{0x0A, 0x0B}, {0x0C}})

	buf := make([]byte, 8)
	n, err := s.readMib(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, buf[:n])

	n, err = s.readSi(0, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0x0B}, buf[:n])

	n, err = s.readSi(1, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0C}, buf[:n])

	assert.Equal(t, 2, s.numSiMessages())
	assert.Equal(t, []uint32{2, 1}, s.siByteLengths())
}

func TestSiStoreIndexOutOfRange(t *testing.T) {
	s := newSiStore([]byte{0x01}, [][]byte{{0x0A}})

	buf := bytes.Repeat([]byte{0xAA}, 4)
	n, err := s.readSi(1, buf)
	assert.ErrorIs(t, err, ErrSiIndexOutOfRange)
	assert.Zero(t, n)
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 4), buf) // untouched
}

func TestSiStoreInsufficientSpace(t *testing.T) {
	s := newSiStore([]byte{0x01, 0x02, 0x03}, [][]byte{{0x0A, 0x0B}})

	buf := bytes.Repeat([]byte{0xAA}, 1)

	n, err := s.readMib(buf)
	assert.ErrorIs(t, err, ErrInsufficientSpace)
	assert.Zero(t, n)
	assert.Equal(t, byte(0xAA), buf[0])

	n, err = s.readSi(0, buf)
	assert.ErrorIs(t, err, ErrInsufficientSpace)
	assert.Zero(t, n)
	assert.Equal(t, byte(0xAA), buf[0])
}
