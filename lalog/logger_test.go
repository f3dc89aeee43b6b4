package lalog

import "testing"

func TestFormatIncludesComponentAndActor(t *testing.T) {
	logger := &Logger{ComponentName: "smtp", ComponentID: []ComponentIDField{{Key: "listen", Value: ":1025"}}}
	got := logger.Format("Handle", "127.0.0.1", nil, "transaction complete, %d messages", 2)
	want := "smtp[listen=:1025].Handle(127.0.0.1): transaction complete, 2 messages"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestFormatIncludesError(t *testing.T) {
	logger := &Logger{ComponentName: "smtp"}
	got := logger.Format("Handle", "", errFake{}, "aborting")
	want := `smtp.Handle: error "fake error" - aborting`
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

type errFake struct{}

func (errFake) Error() string { return "fake error" }

func TestTruncateStringLeavesShortStringsAlone(t *testing.T) {
	if got := TruncateString("short", 100); got != "short" {
		t.Fatalf("TruncateString() = %q, want unchanged", got)
	}
}

func TestTruncateStringShortensLongStrings(t *testing.T) {
	in := make([]byte, 200)
	for i := range in {
		in[i] = 'x'
	}
	got := TruncateString(string(in), 50)
	if len(got) > 50 {
		t.Fatalf("TruncateString() length = %d, want <= 50", len(got))
	}
}

func TestLintStringReplacesControlCharacters(t *testing.T) {
	got := LintString("a\x00b\tc", 10)
	if got != "a_b\tc" {
		t.Fatalf("LintString() = %q, want %q", got, "a_b\tc")
	}
}

func TestWarningDeduplicatesSameActor(t *testing.T) {
	ResetDedup()
	before := *Dropped
	logger := &Logger{ComponentName: "test-dedup"}
	logger.Warning("actor-1", nil, "first warning")
	logger.Warning("actor-1", nil, "first warning")
	if *Dropped <= before {
		t.Fatal("second identical warning from the same actor should have been dropped")
	}
}
