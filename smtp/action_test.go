package smtp

import "testing"

func paramOf(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestClassifyCommandPhase(t *testing.T) {
	cases := []struct {
		line   string
		action Action
		param  string
	}{
		{"HELO test", ActionHELO, "test"},
		{"helo test", ActionHELO, "test"},
		{"EHLO test", ActionEHLO, "test"},
		{"MAIL FROM:<a@x>", ActionMAIL, "<a@x>"},
		{"mail from:<a@x>", ActionMAIL, "<a@x>"},
		{"RCPT TO:<b@y>", ActionRCPT, "<b@y>"},
		{"DATA", ActionDATA, ""},
		{"QUIT", ActionQUIT, ""},
		{"RSET", ActionRSET, ""},
		{"NOOP", ActionNOOP, ""},
		{"VRFY", ActionVRFY, ""},
		{"EXPN", ActionEXPN, ""},
		{"HELP", ActionHELP, ""},
		{"AUTH PLAIN", ActionAUTH, "PLAIN"},
		{"FOOBAR", ActionUnrecog, "FOOBAR"},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			action, param := Classify(tc.line, StateGreet)
			if action != tc.action {
				t.Fatalf("Classify(%q) action = %v, want %v", tc.line, action, tc.action)
			}
			if paramOf(param) != tc.param {
				t.Fatalf("Classify(%q) param = %q, want %q", tc.line, paramOf(param), tc.param)
			}
		})
	}
}

func TestClassifyDataHeaderPhase(t *testing.T) {
	action, param := Classify(".", StateDataHdr)
	if action != ActionDataEnd || param != nil {
		t.Fatalf("'.' in DATA_HDR = %v/%v, want DataEnd/nil", action, param)
	}

	action, param = Classify("", StateDataHdr)
	if action != ActionBlankLine || param != nil {
		t.Fatalf("empty line in DATA_HDR = %v/%v, want BlankLine/nil", action, param)
	}

	action, param = Classify("Subject: Hi", StateDataHdr)
	if action != ActionUnrecog || paramOf(param) != "Subject: Hi" {
		t.Fatalf("header line classified as %v/%q, want Unrecog/'Subject: Hi'", action, paramOf(param))
	}
}

// TestClassifyDataBodyDotHandling covers spec §8's boundary behaviors: only an exact "." line
// terminates DATA, and a line merely beginning with "." is passed through verbatim — no
// dot-unstuffing reversal.
func TestClassifyDataBodyDotHandling(t *testing.T) {
	action, param := Classify(".", StateDataBody)
	if action != ActionDataEnd || param != nil {
		t.Fatalf("'.' in DATA_BODY = %v/%v, want DataEnd/nil", action, param)
	}

	action, param = Classify("..not terminator", StateDataBody)
	if action != ActionUnrecog || paramOf(param) != "..not terminator" {
		t.Fatalf("'..not terminator' classified as %v/%q, want verbatim passthrough", action, paramOf(param))
	}

	action, param = Classify("", StateDataBody)
	if action != ActionUnrecog || paramOf(param) != "" {
		t.Fatalf("blank DATA_BODY line classified as %v/%q, want Unrecog/''", action, paramOf(param))
	}
}

func TestActionStateless(t *testing.T) {
	for _, a := range []Action{ActionRSET, ActionVRFY, ActionEXPN, ActionHELP, ActionNOOP, ActionAUTH} {
		if !a.Stateless() {
			t.Errorf("%v should be stateless", a)
		}
	}
	for _, a := range []Action{ActionHELO, ActionMAIL, ActionRCPT, ActionDATA, ActionQUIT} {
		if a.Stateless() {
			t.Errorf("%v should not be stateless", a)
		}
	}
}
