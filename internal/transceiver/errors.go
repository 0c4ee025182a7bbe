package transceiver

import "fmt"

// ErrorKind classifies why the receiver resynchronized. It never
// surfaces as a Go error from Push; it is a diagnostic-only record
// readable via Receiver.LastError for telemetry.
type ErrorKind int

const (
	// ErrorNone means the most recent frame attempt, if any, succeeded.
	ErrorNone ErrorKind = iota
	// ErrorBadLength means the recovered LEN field was inconsistent
	// with the available bytes.
	ErrorBadLength
	// ErrorBadCRC means RS-corrected bytes failed their CRC-32 check.
	ErrorBadCRC
	// ErrorUncorrectableErrors means RS decoding failed outright.
	ErrorUncorrectableErrors
	// ErrorTruncated means a symbol slice ran short of samples.
	ErrorTruncated
	// ErrorHeaderInvalid means the header symbol's mini-RS failed, or
	// declared a payload length exceeding what this Config accepts.
	ErrorHeaderInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "None"
	case ErrorBadLength:
		return "BadLength"
	case ErrorBadCRC:
		return "BadCRC"
	case ErrorUncorrectableErrors:
		return "UncorrectableErrors"
	case ErrorTruncated:
		return "Truncated"
	case ErrorHeaderInvalid:
		return "HeaderInvalid"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}
