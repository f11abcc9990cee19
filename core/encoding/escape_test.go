package encoding

import "testing"

func TestEscapeXMLText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"a < b & c > d", "a &lt; b &amp; c &gt; d"},
		{`"quoted"`, `"quoted"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeXMLText(tt.in); got != tt.want {
			t.Errorf("EscapeXMLText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	got := EscapeXMLAttr(`say "hi" & <go>`)
	want := "say &quot;hi&quot; &amp; &lt;go&gt;"
	if got != want {
		t.Errorf("EscapeXMLAttr = %q, want %q", got, want)
	}
}

func TestEscapeXML(t *testing.T) {
	got := EscapeXML("a & b")
	if got != "a &amp; b" {
		t.Errorf("EscapeXML = %q", got)
	}
}
