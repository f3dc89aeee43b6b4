package smtp

import (
	"encoding/base64"
	"strings"

	"github.com/emersion/go-sasl"

	"github.com/chrisime/dumbster/lalog"
)

// decodeAuthPlain parses the parameter captured after "AUTH " (e.g. "PLAIN <base64>") and, when the
// mechanism is PLAIN and an initial response is present, decodes the payload purely so it can be
// logged — the decoded identity/username/password never influence the 235 response or the state
// machine (spec §6/§9: "any credentials are accepted"). Grounded on infodancer-pop3d's
// auth_commands.go use of sasl.NewPlainServer, whose authenticate callback there performs real
// verification; here it unconditionally returns nil, matching this server's simulated auth.
func decodeAuthPlain(logger *lalog.Logger, actor, param string) {
	mechanism, token, _ := strings.Cut(param, " ")
	if !strings.EqualFold(mechanism, "PLAIN") || token == "" {
		return
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		logger.MaybeMinorError(err)
		return
	}

	var identity, username, password string
	server := sasl.NewPlainServer(func(gotIdentity, gotUsername, gotPassword string) error {
		identity, username, password = gotIdentity, gotUsername, gotPassword
		return nil
	})
	if _, _, err := server.Next(raw); err != nil {
		logger.MaybeMinorError(err)
		return
	}
	logger.Info(actor, nil, "simulated AUTH PLAIN for identity=%q username=%q password=%q (never verified)", identity, username, password)
}
