package vfs

import "testing"

func TestTransliterate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "russian", in: "Отчёты", want: "otchety"},
		{name: "russian multi-letter", in: "Щука & Ёж", want: "schuka_ezh"},
		{name: "russian soft sign dropped", in: "Объявления", want: "obyavleniya"},
		{name: "ukrainian", in: "Київ", want: "kiyiv"},
		{name: "greek with tonos", in: "Αθήνα", want: "athina"},
		{name: "latin diacritics", in: "Ünïcödé", want: "unicode"},
		{name: "decomposed diacritics", in: "cafe\u0301", want: "cafe"},
		{name: "sharp s", in: "Straße", want: "strasse"},
		{name: "ascii lowercased", in: "ABC123", want: "abc123"},
		{name: "whitespace collapsed", in: "  Hello   World  ", want: "hello_world"},
		{name: "punctuation collapsed", in: "report-2024.final!!", want: "report_2024_final"},
		{name: "mixed separators", in: "a - _ b", want: "a_b"},
		{name: "only separators", in: "___ --", want: ""},
		{name: "ascii symbols dropped", in: "a+b", want: "ab"},
		{name: "symbols between words", in: "cost $5 = total", want: "cost_5_total"},
		{name: "symbols only", in: "+=$^|~<>", want: ""},
		{name: "emoji only", in: "📁📁", want: ""},
		{name: "emoji dropped", in: "📁 Docs 📁", want: "docs"},
		{name: "cjk dropped", in: "日本", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transliterate(tt.in)
			if got != tt.want {
				t.Errorf("Transliterate(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if Segment(tt.in) != got {
				t.Errorf("Segment(%q) = %q, want %q", tt.in, Segment(tt.in), got)
			}
			for _, r := range got {
				if !isASCIIAlnum(r) && r != '_' {
					t.Errorf("Transliterate(%q) contains %q", tt.in, r)
				}
			}
		})
	}
}

func TestUniqueName(t *testing.T) {
	tests := []struct {
		name     string
		proposed string
		siblings []string
		want     string
	}{
		{name: "no siblings", proposed: "Docs", want: "Docs"},
		{name: "no clash", proposed: "Docs", siblings: []string{"Other"}, want: "Docs"},
		{name: "exact clash", proposed: "Docs", siblings: []string{"Docs"}, want: "Docs_1"},
		{name: "second clash", proposed: "Docs", siblings: []string{"Docs", "Docs_1"}, want: "Docs_2"},
		{name: "segment clash", proposed: "docs", siblings: []string{"Docs"}, want: "docs_1"},
		{name: "transliteration clash", proposed: "Отчёты", siblings: []string{"отчеты"}, want: "Отчёты_1"},
		{name: "suffix segment clash", proposed: "Docs", siblings: []string{"Docs", "docs_1"}, want: "Docs_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UniqueName(tt.proposed, tt.siblings); got != tt.want {
				t.Errorf("UniqueName(%q, %v) = %q, want %q", tt.proposed, tt.siblings, got, tt.want)
			}
		})
	}
}
