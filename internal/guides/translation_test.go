package guides

import "testing"

func TestResolveTranslation(t *testing.T) {
	g := Guide{Translations: map[string]Translation{
		"ru": {Title: "Банки"},
		"uz": {Title: "Banklar"},
	}}

	tests := []struct {
		name        string
		requested   string
		defaultLang string
		wantLang    string
		wantOK      bool
	}{
		{"requested present", "ru", "en", "ru", true},
		{"fallback to default", "en", "uz", "uz", true},
		{"fallback to smallest key", "en", "en", "ru", true},
		{"empty request uses default", "", "uz", "uz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, lang, ok := ResolveTranslation(g, tt.requested, tt.defaultLang)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if lang != tt.wantLang {
				t.Fatalf("lang = %q, want %q", lang, tt.wantLang)
			}
			if tr != g.Translations[tt.wantLang] {
				t.Fatalf("wrong translation returned for %q", lang)
			}
		})
	}
}

func TestResolveTranslationEmptyGuide(t *testing.T) {
	_, _, ok := ResolveTranslation(Guide{}, "en", "en")
	if ok {
		t.Fatalf("expected no translation for a guide without any")
	}
}

func TestResolveTranslationDeterministic(t *testing.T) {
	g := Guide{Translations: map[string]Translation{
		"uz": {Title: "Uz"},
		"ru": {Title: "Ru"},
	}}

	// map iteration order must not leak into the fallback choice
	for i := 0; i < 50; i++ {
		_, lang, ok := ResolveTranslation(g, "en", "en")
		if !ok || lang != "ru" {
			t.Fatalf("iteration %d: resolved %q, want ru", i, lang)
		}
	}
}
