package fec

import "errors"

// Sentinel error kinds, all recoverable at the caller; wrap with
// fmt.Errorf("...: %w", ErrXxx) for context, and unwrap with errors.Is
// to classify.
var (
	// ErrPayloadTooLarge is returned by DataHandler.Encode when the
	// payload would make the RS block exceed 255 bytes.
	ErrPayloadTooLarge = errors.New("fec: payload too large")

	// ErrBadLength is returned by DataHandler.Decode when the declared
	// length field is inconsistent with the block size after RS
	// correction.
	ErrBadLength = errors.New("fec: bad length field")

	// ErrBadCRC is returned by DataHandler.Decode when the CRC-32 does
	// not match after RS correction.
	ErrBadCRC = errors.New("fec: bad CRC-32")

	// ErrUncorrectableErrors is returned when the Reed-Solomon decoder
	// cannot correct the codeword (more than nsym/2 byte errors, or the
	// Chien search / Forney step fails internal consistency checks).
	ErrUncorrectableErrors = errors.New("fec: uncorrectable errors")
)
