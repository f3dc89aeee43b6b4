package smtp

import "strings"

// Action is the classified meaning of one line of client input, independent of the state it was
// read in. Some actions (RSET, VRFY, EXPN, HELP, NOOP, AUTH) are stateless: the Engine answers
// them identically from every state.
type Action int

const (
	ActionConnect Action = iota
	ActionHELO
	ActionEHLO
	ActionMAIL
	ActionRCPT
	ActionDATA
	ActionDataEnd
	ActionQUIT
	ActionUnrecog
	ActionBlankLine
	ActionRSET
	ActionVRFY
	ActionEXPN
	ActionHELP
	ActionNOOP
	// ActionAUTH is a stateless pseudo-verb satisfying the wire protocol's simulated AUTH PLAIN
	// mention (spec §6) without adding the optional GREET_AUTH/AUTH_PLAIN/CREDENTIALS states to
	// the normative table. See Driver.Handle for how the payload is decoded for logging only.
	ActionAUTH
)

// Stateless reports whether the action's response never depends on the current protocol state.
func (a Action) Stateless() bool {
	switch a {
	case ActionRSET, ActionVRFY, ActionEXPN, ActionHELP, ActionNOOP, ActionAUTH:
		return true
	default:
		return false
	}
}

// Classify determines the Action carried by one unterminated input line, given the protocol
// state the connection is currently in. The data phases (DATA_HDR, DATA_BODY) are lexed
// completely differently from the command phases: almost anything is passed through verbatim as
// the payload of an ActionUnrecog, which the Assembler interprets as header or body content.
//
// The returned *string is the verb's parameter; it preserves the original casing and whitespace of
// the input line. It is nil only for DATA_END and for a blank DATA_HDR line; a command verb with
// nothing after it (e.g. "DATA") gets a non-nil empty string.
func Classify(line string, state State) (Action, *string) {
	switch state {
	case StateDataHdr:
		return classifyDataHdr(line)
	case StateDataBody:
		return classifyDataBody(line)
	default:
		return classifyCommand(line)
	}
}

func classifyDataHdr(line string) (Action, *string) {
	if line == "." {
		return ActionDataEnd, nil
	}
	if line == "" {
		return ActionBlankLine, nil
	}
	return ActionUnrecog, &line
}

func classifyDataBody(line string) (Action, *string) {
	if line == "." {
		return ActionDataEnd, nil
	}
	if line == "" {
		// The Assembler appends "params + \n" uniformly for every DATA_BODY line; substituting
		// the empty string here (rather than a nil param, which the Assembler would ignore) is
		// what makes a blank wire line land in the body as a single "\n", per spec §8.
		blank := ""
		return ActionUnrecog, &blank
	}
	return ActionUnrecog, &line
}

// verb pairs a literal prefix with the Action it selects and the length of the verb token to
// strip (including any trailing colon) before handing the remainder over as the parameter.
type verb struct {
	prefix    string
	action    Action
	prefixLen int
}

// verbs is checked in order; longer, more specific prefixes are listed before shorter ones that
// would otherwise shadow them (e.g. "MAIL FROM:" before a bare "MAIL").
var verbs = []verb{
	{"HELO ", ActionHELO, 5},
	{"EHLO ", ActionEHLO, 5},
	{"MAIL FROM:", ActionMAIL, 10},
	{"RCPT TO:", ActionRCPT, 8},
	{"DATA", ActionDATA, 4},
	{"QUIT", ActionQUIT, 4},
	{"RSET", ActionRSET, 4},
	{"NOOP", ActionNOOP, 4},
	{"EXPN", ActionEXPN, 4},
	{"VRFY", ActionVRFY, 4},
	{"HELP", ActionHELP, 4},
	{"AUTH ", ActionAUTH, 5},
}

func classifyCommand(line string) (Action, *string) {
	upper := strings.ToUpper(line)
	for _, v := range verbs {
		if strings.HasPrefix(upper, v.prefix) {
			param := line[v.prefixLen:]
			return v.action, &param
		}
	}
	return ActionUnrecog, &line
}
