package i18n

import (
	"embed"
	"io/fs"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"gopkg.in/yaml.v3"
)

// Message ids of the user-facing catalog.
const (
	MsgIcebreakerError       = "IcebreakerError"
	MsgIcebreakerEmpty       = "IcebreakerEmpty"
	MsgEncouragementFallback = "EncouragementFallback"
)

//go:embed locales/*.yaml
var localeFS embed.FS

var bundle = mustLoadBundle(localeFS)

func mustLoadBundle(fsys fs.FS) *goi18n.Bundle {
	b, err := LoadBundle(fsys)
	if err != nil {
		panic(err)
	}
	return b
}

// LoadBundle parses every locales/*.yaml message file in fsys. The file name
// carries the language tag, e.g. active.en.yaml.
func LoadBundle(fsys fs.FS) (*goi18n.Bundle, error) {
	b := goi18n.NewBundle(Default())
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, err
		}
		if _, err := b.ParseMessageFileBytes(data, f); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// T returns message id in lang, falling back to the default language and
// finally to the id itself.
func T(lang, id string) string {
	loc := goi18n.NewLocalizer(bundle, lang, Default().String())
	s, err := loc.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return s
}
