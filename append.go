package imapcore

import "time"

// AppendOptions specifies options for the APPEND command.
type AppendOptions struct {
	// Flags is the list of flags to set on the message.
	Flags []Flag
	// InternalDate is the internal date to set on the message.
	InternalDate time.Time
	// Binary indicates the message was sent using binary literal (~{N}) notation (RFC 3516).
	Binary bool
	// UTF8 indicates the message was sent using UTF8 literal notation (RFC 6855).
	UTF8 bool
}

// AppendData represents the result of an APPEND command.
type AppendData struct {
	// UIDValidity is the UID validity of the destination mailbox.
	UIDValidity uint32
	// UID is the UID assigned to the appended message (UIDPLUS).
	UID UID
}

// CatenatePart is one part of a CATENATE APPEND (RFC 4469): either a byte
// literal to stream verbatim, or a URL referencing an existing message (or
// part of one) on the server. The cmdstate package shepherds the sequence
// of parts through the sub-machine's Catenating states without interpreting
// URL syntax, which belongs to the out-of-scope grammar layer.
type CatenatePart struct {
	// URL is set for a CATENATE URL part; empty for a byte literal part.
	URL string
	// ByteCount is the literal length for a CATENATE TEXT part; zero for a
	// URL part.
	ByteCount int64
}

// IsURL reports whether this part references an existing message rather
// than carrying streamed bytes.
func (p CatenatePart) IsURL() bool { return p.URL != "" }

// CatenateURLPart constructs a CATENATE URL part.
func CatenateURLPart(url string) CatenatePart { return CatenatePart{URL: url} }

// CatenateDataPart constructs a CATENATE TEXT part of the given literal
// length.
func CatenateDataPart(byteCount int64) CatenatePart { return CatenatePart{ByteCount: byteCount} }
