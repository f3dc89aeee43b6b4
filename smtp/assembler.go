package smtp

import (
	"errors"
	"strings"
)

// ErrContinuationBeforeHeader is returned by Store when a header-continuation line (one
// beginning with whitespace) arrives before any header has been seen. Spec §7 classifies this as
// a programming-invariant violation rather than an ordinary protocol misuse: the Driver aborts
// the transaction and closes the connection without enqueueing anything.
var ErrContinuationBeforeHeader = errors.New("smtp: header continuation line before any header")

// Assembler accumulates one Message at a time from the (Response, params) pairs the Driver feeds
// it during a MAIL->QUIT exchange. A single Assembler is reused for the lifetime of a connection;
// Reset allocates a fresh Message for the next transaction rather than clearing the old one in
// place, so a finished Message can be handed off to the capture queue without risk of a later
// mutation.
type Assembler struct {
	current *Message
}

// NewAssembler returns an Assembler with a fresh, empty Message in progress.
func NewAssembler() *Assembler {
	return &Assembler{current: NewMessage()}
}

// Current returns the Message currently being assembled.
func (a *Assembler) Current() *Message {
	return a.current
}

// Reset hands back the finished Message and starts a new, empty one in its place.
func (a *Assembler) Reset() *Message {
	finished := a.current
	a.current = NewMessage()
	return finished
}

// Store mutates the in-progress Message according to spec §4.3. It is a no-op unless
// response.NextState is DATA_HDR or DATA_BODY; the Engine response for any other transition
// carries no Message content, so the Driver may call Store unconditionally on every line.
func (a *Assembler) Store(response Response, params *string) error {
	switch response.NextState {
	case StateDataHdr:
		if params == nil {
			return nil
		}
		return a.storeHeaderLine(*params)
	case StateDataBody:
		if params == nil {
			return nil
		}
		a.current.appendBody(*params)
	}
	return nil
}

func (a *Assembler) storeHeaderLine(line string) error {
	if line == "" {
		return nil
	}
	if line[0] == ' ' || line[0] == '\t' {
		if !a.current.extendLastHeaderValue(strings.TrimSpace(line)) {
			return ErrContinuationBeforeHeader
		}
		return nil
	}
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		// Malformed header (no colon, not a continuation): silently dropped per spec §7.
		return nil
	}
	name := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	a.current.addHeader(name, value)
	return nil
}
