package smtp

import (
	"encoding/base64"
	"testing"

	"github.com/chrisime/dumbster/lalog"
)

// TestDecodeAuthPlainNeverErrors covers spec §6/§9: AUTH PLAIN is simulated and any token is
// accepted, so decodeAuthPlain must never panic or block regardless of payload shape.
func TestDecodeAuthPlainNeverErrors(t *testing.T) {
	logger := &lalog.Logger{ComponentName: "test"}
	token := base64.StdEncoding.EncodeToString([]byte("identity\x00user\x00pass"))
	decodeAuthPlain(logger, "127.0.0.1", "PLAIN "+token)
}

func TestDecodeAuthPlainIgnoresGarbage(t *testing.T) {
	logger := &lalog.Logger{ComponentName: "test"}
	decodeAuthPlain(logger, "127.0.0.1", "PLAIN not-valid-base64!!!")
	decodeAuthPlain(logger, "127.0.0.1", "")
}

func TestDecodeAuthPlainIgnoresOtherMechanisms(t *testing.T) {
	logger := &lalog.Logger{ComponentName: "test"}
	decodeAuthPlain(logger, "127.0.0.1", "LOGIN")
	decodeAuthPlain(logger, "127.0.0.1", "PLAIN")
}
