package guides

import "sort"

// ResolveTranslation picks the field set for the requested language,
// falling back to defaultLang and then to the smallest available language
// code so the same guide always resolves the same way. The returned lang
// names the language that was actually used. ok is false only for a guide
// with no translations at all, a state creation never allows.
func ResolveTranslation(g Guide, lang, defaultLang string) (Translation, string, bool) {
	if lang != "" {
		if tr, ok := g.Translations[lang]; ok {
			return tr, lang, true
		}
	}
	if defaultLang != "" && defaultLang != lang {
		if tr, ok := g.Translations[defaultLang]; ok {
			return tr, defaultLang, true
		}
	}

	langs := make([]string, 0, len(g.Translations))
	for l := range g.Translations {
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return Translation{}, "", false
	}
	sort.Strings(langs)
	return g.Translations[langs[0]], langs[0], true
}
