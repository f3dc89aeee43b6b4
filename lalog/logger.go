// Package lalog provides the structured, rate-limited logger used throughout dumbster. It is a
// trimmed port of laitos's lalog package: the server's connection handling and lifecycle log
// through a *Logger rather than bare log.Printf (the config and metrics packages do not log), and
// a misbehaving or chatty client cannot flood stderr because repeated warnings from the same
// actor are de-duplicated and rate-limited.
package lalog

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/chrisime/dumbster/datastruct"
)

const (
	// MaxMessageLen bounds how much of a single log line is retained in the in-memory buffers.
	MaxMessageLen  = 4096
	truncatedLabel = "...(truncated)..."
)

var (
	// MaxMessagesPerSec caps how many log lines any one Logger instance will emit per window;
	// additional messages are silently dropped and counted in Dropped.
	MaxMessagesPerSec = runtime.NumCPU() * 300

	// RecentLogs retains a bounded history of all log lines (info and warning) for inspection.
	RecentLogs = datastruct.NewRingBuffer(1 * 1048576 / MaxMessageLen)

	// RecentWarnings retains a bounded history of warning-level log lines only.
	RecentWarnings = datastruct.NewRingBuffer(1 * 1048576 / MaxMessageLen)

	// warnedActors de-duplicates warnings by calling function and actor (e.g. remote IP), so one
	// noisy connection cannot dominate the log. There is no time bound: a repeated key stays
	// suppressed until it is evicted from the set or ResetDedup is called.
	warnedActors = datastruct.NewSeenSet(1 * 1048576 / MaxMessageLen)

	// seenMessages de-duplicates identical formatted info-level lines; the formatted line includes
	// the actor, so the same text from two different actors is not a duplicate.
	seenMessages = datastruct.NewSeenSet(1 * 1048576 / MaxMessageLen)

	// Dropped counts log messages suppressed by de-duplication or rate limiting.
	Dropped = new(int64)
	droppedMu sync.Mutex
)

// ResetDedup clears the de-duplication state. Tests use this between cases that assert on log
// behaviour so one test's warnings don't suppress another's.
func ResetDedup() {
	warnedActors.Clear()
	seenMessages.Clear()
}

// ComponentIDField names one key/value pair identifying a Logger's owning instance, e.g. the
// listening address of the daemon that created it.
type ComponentIDField struct {
	Key   string
	Value interface{}
}

// Logger formats and emits log lines tagged with a component name and instance identifiers.
type Logger struct {
	ComponentName string
	ComponentID   []ComponentIDField

	initOnce  sync.Once
	rateLimit *RateLimit
}

func (logger *Logger) initialiseOnce() {
	logger.initOnce.Do(func() {
		logger.rateLimit = NewRateLimit(1, MaxMessagesPerSec, logger)
	})
}

func (logger *Logger) componentIDString() string {
	if len(logger.ComponentID) == 0 {
		return ""
	}
	var buf bytes.Buffer
	buf.WriteRune('[')
	for i, field := range logger.ComponentID {
		buf.WriteString(fmt.Sprintf("%s=%v", field.Key, field.Value))
		if i < len(logger.ComponentID)-1 {
			buf.WriteRune(';')
		}
	}
	buf.WriteRune(']')
	return buf.String()
}

// Format renders a log line without emitting it: "Component[id=val].function(actor): message".
func (logger *Logger) Format(functionName string, actor interface{}, err error, template string, values ...interface{}) string {
	var buf bytes.Buffer
	if logger.ComponentName != "" {
		buf.WriteString(logger.ComponentName)
	}
	buf.WriteString(logger.componentIDString())
	if functionName != "" {
		if buf.Len() > 0 {
			buf.WriteRune('.')
		}
		buf.WriteString(functionName)
	}
	if actor != "" && actor != nil {
		buf.WriteString(fmt.Sprintf("(%v)", actor))
	}
	if buf.Len() > 0 {
		buf.WriteString(": ")
	}
	if err != nil {
		buf.WriteString(fmt.Sprintf("error %q", err))
		if template != "" {
			buf.WriteString(" - ")
		}
	}
	buf.WriteString(fmt.Sprintf(template, values...))
	return LintString(TruncateString(buf.String(), MaxMessageLen), MaxMessageLen)
}

func callerName(skip int) string {
	pc, file, _, ok := runtime.Caller(skip)
	if !ok {
		file = "?"
	}
	fun := runtime.FuncForPC(pc)
	funcName := "?"
	if fun != nil {
		funcName = strings.TrimLeft(filepath.Ext(fun.Name()), ".")
	}
	return filepath.Base(file) + ":" + funcName
}

func addDropped() {
	droppedMu.Lock()
	*Dropped++
	droppedMu.Unlock()
}

func (logger *Logger) warning(funcName string, actor interface{}, err error, template string, values ...interface{}) {
	dedupKey := funcName + fmt.Sprint(actor)
	if alreadyWarned, _ := warnedActors.Add(dedupKey); alreadyWarned || !logger.rateLimit.Add("", false) {
		addDropped()
		return
	}
	msg := logger.Format(funcName, actor, err, template, values...)
	log.Print(msg)
	stamped := time.Now().Format("2006-01-02 15:04:05 ") + msg
	RecentLogs.Push(stamped)
	RecentWarnings.Push(stamped)
}

// Warning prints and retains a warning-level log message.
func (logger *Logger) Warning(actor interface{}, err error, template string, values ...interface{}) {
	logger.initialiseOnce()
	logger.warning(callerName(2), actor, err, template, values...)
}

func (logger *Logger) info(funcName string, actor interface{}, err error, template string, values ...interface{}) {
	if err != nil {
		logger.warning(funcName, actor, err, template, values...)
		return
	}
	msg := logger.Format(funcName, actor, err, template, values...)
	if alreadySeen, _ := seenMessages.Add(msg); alreadySeen || !logger.rateLimit.Add("", false) {
		addDropped()
		return
	}
	log.Print(msg)
	RecentLogs.Push(time.Now().Format("2006-01-02 15:04:05 ") + msg)
}

// Info prints and retains an info-level log message. If err is non-nil the message is treated as
// a warning instead.
func (logger *Logger) Info(actor interface{}, err error, template string, values ...interface{}) {
	logger.initialiseOnce()
	logger.info(callerName(2), actor, err, template, values...)
}

// Abort logs the message and terminates the process. Reserved for startup failures (e.g. the
// listener socket cannot be bound) where continuing would serve no purpose.
func (logger *Logger) Abort(actor interface{}, err error, template string, values ...interface{}) {
	logger.initialiseOnce()
	log.Fatal(logger.Format(callerName(2), actor, err, template, values...))
}

// MaybeMinorError logs err (as a warning, since err is non-nil) unless it merely reflects a closed
// or reset connection, which happens routinely when a test client disconnects and is not worth a
// log line.
func (logger *Logger) MaybeMinorError(err error) {
	logger.initialiseOnce()
	if err == nil {
		return
	}
	if strings.Contains(err.Error(), "closed") || strings.Contains(err.Error(), "reset") {
		return
	}
	logger.info(callerName(2), "", err, "minor error")
}

// DefaultLogger is used where no more specific Logger instance is available.
var DefaultLogger = &Logger{ComponentName: "dumbster", ComponentID: []ComponentIDField{{Key: "pid", Value: os.Getpid()}}}

// TruncateString returns in unchanged if it already fits within maxLength; otherwise it removes
// a middle portion and substitutes a truncation marker so the result fits.
func TruncateString(in string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	if len(in) <= maxLength {
		return in
	}
	if maxLength <= len(truncatedLabel) {
		return in[:maxLength]
	}
	firstHalfEnd := maxLength/2 - len(truncatedLabel)/2
	secondHalfBegin := len(in) - (maxLength / 2) + len(truncatedLabel)/2
	if maxLength%2 == 0 {
		secondHalfBegin++
	}
	var buf bytes.Buffer
	buf.WriteString(in[:firstHalfEnd])
	buf.WriteString(truncatedLabel)
	buf.WriteString(in[secondHalfBegin:])
	return buf.String()
}

// LintString replaces non-printable and non-ASCII runes with underscores and caps the result to
// maxLength, so that arbitrary client input is always safe to write to a log stream.
func LintString(in string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	var buf bytes.Buffer
	for i, r := range in {
		if i >= maxLength {
			break
		}
		if (r >= 0 && r <= 8) || (r >= 14 && r <= 31) || (r >= 127) || (!unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			buf.WriteRune('_')
		} else {
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// ByteArrayLogString renders a byte slice for log output, falling back to a %#v dump when most of
// the content is non-printable (e.g. a raw DATA payload with binary attachments).
func ByteArrayLogString(data []byte) string {
	var binaryCount int
	for _, b := range data {
		if (b <= 8) || (b >= 14 && b <= 31) || (b >= 127) || (!unicode.IsPrint(rune(b)) && !unicode.IsSpace(rune(b))) {
			binaryCount++
		}
	}
	if len(data) > 0 && float32(binaryCount)/float32(len(data)) > 0.5 {
		return fmt.Sprintf("%#v", data)
	}
	return LintString(string(data), 1000)
}
