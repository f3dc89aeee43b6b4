package smtp

import "testing"

func storeHeaderLine(t *testing.T, a *Assembler, line string) {
	t.Helper()
	if err := a.Store(Response{NextState: StateDataHdr}, &line); err != nil {
		t.Fatalf("Store(%q) returned unexpected error: %v", line, err)
	}
}

func TestAssemblerBasicHeaderAndBody(t *testing.T) {
	a := NewAssembler()
	storeHeaderLine(t, a, "Subject: Hi")
	body := "Hello"
	if err := a.Store(Response{NextState: StateDataBody}, &body); err != nil {
		t.Fatal(err)
	}

	if got := a.Current().HeaderValue("Subject"); got == nil || *got != "Hi" {
		t.Fatalf("HeaderValue(Subject) = %v, want Hi", got)
	}
	if got := a.Current().Body(); got != "Hello\n" {
		t.Fatalf("Body() = %q, want %q", got, "Hello\n")
	}
}

// TestAssemblerHeaderContinuation covers spec §8 scenario S2.
func TestAssemblerHeaderContinuation(t *testing.T) {
	a := NewAssembler()
	storeHeaderLine(t, a, "X-H: first")
	storeHeaderLine(t, a, "    second")

	got := a.Current().HeaderValue("X-H")
	if got == nil || *got != "first second" {
		t.Fatalf("HeaderValue(X-H) = %v, want %q", got, "first second")
	}
}

func TestAssemblerContinuationBeforeAnyHeaderIsFatal(t *testing.T) {
	a := NewAssembler()
	line := "    orphan continuation"
	err := a.Store(Response{NextState: StateDataHdr}, &line)
	if err != ErrContinuationBeforeHeader {
		t.Fatalf("Store() = %v, want ErrContinuationBeforeHeader", err)
	}
}

func TestAssemblerDuplicateHeadersAccumulate(t *testing.T) {
	a := NewAssembler()
	storeHeaderLine(t, a, "Received: a")
	storeHeaderLine(t, a, "Received: b")

	values := a.Current().HeaderValues("Received")
	if len(values) != 2 || values[0] != "a" || values[1] != "b" {
		t.Fatalf("HeaderValues(Received) = %v, want [a b]", values)
	}
}

func TestAssemblerMalformedHeaderDropped(t *testing.T) {
	a := NewAssembler()
	storeHeaderLine(t, a, "this has no colon")

	if names := a.Current().HeaderNames(); len(names) != 0 {
		t.Fatalf("HeaderNames() = %v, want empty after malformed header", names)
	}
}

// TestAssemblerBlankBodyLine covers spec §8: "An empty line in DATA_BODY is captured as \n."
func TestAssemblerBlankBodyLine(t *testing.T) {
	a := NewAssembler()
	first := "Hello"
	blank := ""
	second := "World"
	if err := a.Store(Response{NextState: StateDataBody}, &first); err != nil {
		t.Fatal(err)
	}
	if err := a.Store(Response{NextState: StateDataBody}, &blank); err != nil {
		t.Fatal(err)
	}
	if err := a.Store(Response{NextState: StateDataBody}, &second); err != nil {
		t.Fatal(err)
	}
	if got, want := a.Current().Body(), "Hello\n\nWorld\n"; got != want {
		t.Fatalf("Body() = %q, want %q", got, want)
	}
}

// TestAssemblerDotInBodyVerbatim covers spec §8 scenario S6.
func TestAssemblerDotInBodyVerbatim(t *testing.T) {
	a := NewAssembler()
	line := "..not terminator"
	if err := a.Store(Response{NextState: StateDataBody}, &line); err != nil {
		t.Fatal(err)
	}
	if got, want := a.Current().Body(), "..not terminator\n"; got != want {
		t.Fatalf("Body() = %q, want %q", got, want)
	}
}

func TestAssemblerResetAllocatesFreshMessage(t *testing.T) {
	a := NewAssembler()
	storeHeaderLine(t, a, "Subject: first")
	finished := a.Reset()

	if got := finished.HeaderValue("Subject"); got == nil || *got != "first" {
		t.Fatalf("finished message lost its header: %v", got)
	}
	if names := a.Current().HeaderNames(); len(names) != 0 {
		t.Fatalf("new current message should start empty, got %v", names)
	}
}
