package smtp

import (
	"errors"
	"io"
	"strconv"

	"github.com/chrisime/dumbster/lalog"
)

// LineReader delivers one line of client input at a time, without its terminator. It returns
// io.EOF (or any other error) when no more lines are available, ending the Driver's loop exactly
// like laitos's Conn.ReadLine signals connection teardown.
type LineReader interface {
	ReadLine() (string, error)
}

// LineWriter transmits one already-formatted response line, terminator included.
type LineWriter interface {
	WriteLine(line string) error
}

// Driver orchestrates a single accepted connection end to end: it owns the Classifier/Engine/
// Assembler trio and turns a LineReader/LineWriter pair into a list of completed Messages, per
// spec §4.4. A Driver is single-use — construct one per connection.
type Driver struct {
	ServerName string
	Logger     *lalog.Logger
	// Actor identifies the remote party for logging, e.g. the connection's remote address. Set
	// after NewDriver; the zero value is fine for tests that don't care about log attribution.
	Actor string

	state     State
	assembler *Assembler
	messages  []*Message
}

// NewDriver returns a Driver that will identify itself as serverName in greeting/closing text.
func NewDriver(serverName string, logger *lalog.Logger) *Driver {
	if logger == nil {
		logger = lalog.DefaultLogger
	}
	return &Driver{
		ServerName: serverName,
		Logger:     logger,
		state:      StateConnect,
		assembler:  NewAssembler(),
	}
}

// Handle drives the connection per spec §4.4: emit the 220 greeting, then loop reading lines,
// classifying and executing them, transmitting any non-silent response, and feeding the
// Assembler, until the client's QUIT returns the state machine to CONNECT or the LineReader runs
// out of input. It returns every Message completed during the connection (possibly zero, one, or
// more, per spec §9's MAIL-after-QUIT tolerance).
func (d *Driver) Handle(in LineReader, out LineWriter) ([]*Message, error) {
	if err := d.transition(ActionConnect, nil, in, out); err != nil {
		return nil, err
	}

	for d.state != StateConnect {
		line, err := in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return d.messages, err
		}
		action, params := Classify(line, d.state)
		if err := d.transition(action, params, in, out); err != nil {
			return nil, err
		}
	}
	return d.messages, nil
}

func (d *Driver) transition(action Action, params *string, in LineReader, out LineWriter) error {
	response := Execute(action, d.state, d.ServerName)
	if response.Transmit() {
		if err := out.WriteLine(responseLine(response)); err != nil {
			d.Logger.MaybeMinorError(err)
			return err
		}
	}
	if action == ActionAUTH && params != nil {
		decodeAuthPlain(d.Logger, d.Actor, *params)
	}
	if err := d.assembler.Store(response, params); err != nil {
		d.Logger.Warning("Driver.transition", err, "aborting transaction")
		return err
	}
	if response.NextState == StateQuit {
		finished := d.assembler.Reset()
		d.Logger.Info(d.Actor, nil, "captured message, %d header(s), body=%s",
			len(finished.HeaderNames()), lalog.ByteArrayLogString([]byte(finished.Body())))
		d.messages = append(d.messages, finished)
	}
	d.state = response.NextState
	return nil
}

func responseLine(r Response) string {
	return strconv.Itoa(r.Code) + " " + r.Text + "\r\n"
}
