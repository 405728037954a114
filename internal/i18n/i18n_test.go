package i18n_test

import (
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"

	"golang.org/x/text/language"

	"github.com/garnizeh/warmconnect/internal/i18n"
)

func TestResolveTag(t *testing.T) {
	cases := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"default", "/", "", "zh"},
		{"accept english", "/", "en-US,en;q=0.9", "en"},
		{"accept traditional chinese", "/", "zh-TW", "zh"},
		{"query wins", "/?lang=en", "zh-CN", "en"},
		{"unsupported accept", "/", "fr-FR", "zh"},
		{"bad query ignored", "/?lang=%%%", "en", "en"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://example.com"+c.target, nil)
			if c.accept != "" {
				r.Header.Set("Accept-Language", c.accept)
			}
			if got := i18n.Base(i18n.ResolveTag(r, i18n.Default())); got != c.want {
				t.Fatalf("ResolveTag = %q, want %q", got, c.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if got := i18n.Base(i18n.Parse("en")); got != "en" {
		t.Fatalf("Parse(en) = %q", got)
	}
	if got := i18n.Base(i18n.Parse("")); got != "zh" {
		t.Fatalf("Parse(\"\") = %q", got)
	}
	if i18n.Match() != language.SimplifiedChinese {
		t.Fatalf("Match() should return default")
	}
}

func TestT(t *testing.T) {
	if got := i18n.T("zh", i18n.MsgEncouragementFallback); got != "每一个坚持的瞬间，都是生命的奇迹。" {
		t.Fatalf("zh: %q", got)
	}
	if got := i18n.T("en", i18n.MsgIcebreakerError); got != "Hi, I noticed you're nearby. Would you be open to a chat?" {
		t.Fatalf("en: %q", got)
	}
	if got := i18n.T("fr", i18n.MsgIcebreakerEmpty); got != "你好，看到你也在附近，如果方便的话，想简单交流一下经验。" {
		t.Fatalf("unsupported language should fall back to Chinese, got %q", got)
	}
	if got := i18n.T("en", "NoSuchMessage"); got != "NoSuchMessage" {
		t.Fatalf("unknown id: %q", got)
	}
}

func TestCatalog_EnglishIsTranslated(t *testing.T) {
	for _, id := range []string{i18n.MsgIcebreakerError, i18n.MsgIcebreakerEmpty, i18n.MsgEncouragementFallback} {
		if i18n.T("en", id) == i18n.T("zh", id) {
			t.Errorf("message %s has no English translation", id)
		}
	}
}

func TestLoadBundle(t *testing.T) {
	if _, err := i18n.LoadBundle(os.DirFS(".")); err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	bad := fstest.MapFS{"locales/active.en.yaml": {Data: []byte("a: [unclosed")}}
	if _, err := i18n.LoadBundle(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}
