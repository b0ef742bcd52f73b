package mask

import (
	"strings"
	"testing"
)

func TestMaskUnmaskRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"Привет мир",
		"plain english text",
		"Привет {FF0000}мир",
		"Ты получил %d очков",
		"строка\\nс переносом",
		"{RED}%s{WHITE} подключился к серверу (%d)",
		"табуляция\\tи кавычка \\\" внутри",
		"двойной  пробел и процент %%",
		"многострочная\r\nстрока",
		"%-5.2f и %s и снова %-5.2f",
	}

	for _, c := range cases {
		m := Mask(c)
		if got := m.Unmask(m.Text); got != c {
			t.Errorf("round trip broke for %q: got %q", c, got)
		}
	}
}

func TestMaskHidesEveryToken(t *testing.T) {
	m := Mask("Ты {00FF00}выиграл %d$ \\n конец")
	for _, tok := range []string{"{00FF00}", "%d", "\\n"} {
		if strings.Contains(m.Text, tok) {
			t.Errorf("masked text still contains token %q: %q", tok, m.Text)
		}
	}
	if len(m.Tokens) == 0 {
		t.Fatal("no tokens recorded")
	}
}

func TestRepeatedTokenReusesMarker(t *testing.T) {
	m := Mask("{COLOR}первый{COLOR}второй")
	if len(m.Tokens) != 1 {
		t.Fatalf("tokens = %v, want exactly one", m.Tokens)
	}
	if m.Tokens[0] != "{COLOR}" {
		t.Fatalf("token = %q, want {COLOR}", m.Tokens[0])
	}
	if n := strings.Count(m.Text, Marker(0)); n != 2 {
		t.Fatalf("marker 0 occurs %d times, want 2", n)
	}
	if got := m.Unmask(m.Text); got != "{COLOR}первый{COLOR}второй" {
		t.Fatalf("unmask = %q", got)
	}
}

func TestMarkersAssignedInFirstOccurrenceOrder(t *testing.T) {
	m := Mask("%s then {BLUE} then %s then %d")
	want := TokenMap{"%s", "{BLUE}", "%d"}
	if len(m.Tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", m.Tokens, want)
	}
	for i := range want {
		if m.Tokens[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", m.Tokens, want)
		}
	}
}

func TestTokenOnlyLiteralMasksToMarkersOnly(t *testing.T) {
	m := Mask("%d\\n")
	if got := markerPattern.ReplaceAllString(m.Text, ""); got != "" {
		t.Fatalf("token-only literal left translatable text %q (masked %q)", got, m.Text)
	}
	if got := m.Unmask(m.Text); got != "%d\\n" {
		t.Fatalf("round trip = %q", got)
	}
}

func TestUnmaskSurvivesReordering(t *testing.T) {
	// A translation engine may legally move markers around.
	m := Mask("Привет {COLOR}мир%d")
	if m.Text != "Привет "+Marker(0)+"мир"+Marker(1) {
		t.Fatalf("masked = %q", m.Text)
	}
	translated := Marker(1) + " Hello " + Marker(0) + "world"
	if got := m.Unmask(translated); got != "%d Hello {COLOR}world" {
		t.Fatalf("unmask of reordered text = %q", got)
	}
}

func TestUnmaskLeavesUnknownMarkersAlone(t *testing.T) {
	m := Mask("без токенов")
	in := "text " + Marker(7) + " more"
	if got := m.Unmask(in); got != in {
		t.Fatalf("unknown marker was rewritten: %q", got)
	}
}
