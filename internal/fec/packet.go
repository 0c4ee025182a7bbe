package fec

import (
	"encoding/binary"
	"fmt"
)

// DataHandler frames payload bytes into Reed-Solomon-protected packets
// and recovers them:
//
//	[LEN: 2B big-endian][payload: LEN bytes][CRC32: 4B big-endian][RS parity: nsym bytes]
//
// The RS codeword covers LEN||payload||CRC32.
type DataHandler struct {
	nsym int
	rs   *RSCodec
}

// NewDataHandler returns a DataHandler producing rsNsym parity bytes per
// packet.
func NewDataHandler(rsNsym int) *DataHandler {
	return &DataHandler{nsym: rsNsym, rs: NewRSCodec(rsNsym)}
}

// MaxPayload returns the largest payload this handler accepts (255 minus
// the 2-byte length, 4-byte CRC and nsym parity bytes).
func (h *DataHandler) MaxPayload() int { return 255 - 2 - 4 - h.nsym }

// Encode frames payload into an RS-protected packet ready for bit
// packing and OFDM modulation.
func (h *DataHandler) Encode(payload []byte) ([]byte, error) {
	if len(payload) > h.MaxPayload() {
		return nil, fmt.Errorf("%w: payload is %d bytes, max %d", ErrPayloadTooLarge, len(payload), h.MaxPayload())
	}

	block := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(block, uint16(len(payload)))
	copy(block[2:], payload)
	block = AppendCRC32(block)

	parity, err := h.rs.Encode(block)
	if err != nil {
		return nil, fmt.Errorf("fec: rs encode: %w", err)
	}
	return append(block, parity...), nil
}

// Decode recovers the payload from a packet that may have been
// corrupted in transit, correcting up to nsym/2 byte errors.
func (h *DataHandler) Decode(packet []byte) ([]byte, error) {
	corrected, _, err := h.rs.Decode(packet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUncorrectableErrors, err)
	}

	if len(corrected) < 6 {
		return nil, fmt.Errorf("%w: block of %d bytes too short for header+CRC", ErrBadLength, len(corrected))
	}

	length := int(binary.BigEndian.Uint16(corrected[:2]))
	if 2+length+4 != len(corrected) {
		return nil, fmt.Errorf("%w: declared length %d inconsistent with block size %d", ErrBadLength, length, len(corrected))
	}

	lenAndPayload := corrected[:2+length]
	expectedCRC := binary.BigEndian.Uint32(corrected[2+length : 2+length+4])
	actualCRC := CRC32(lenAndPayload)
	if expectedCRC != actualCRC {
		return nil, fmt.Errorf("%w: have 0x%08x, want 0x%08x", ErrBadCRC, actualCRC, expectedCRC)
	}

	payload := make([]byte, length)
	copy(payload, corrected[2:2+length])
	return payload, nil
}
