package icebreaker_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/warmconnect/internal/icebreaker"
	"github.com/garnizeh/warmconnect/pkg/models"
)

func reply(text string, err error) icebreaker.CompleterFunc {
	return func(ctx context.Context, c icebreaker.Completion) (string, error) {
		return text, err
	}
}

func TestIcebreaker_UsesModelText(t *testing.T) {
	var got icebreaker.Completion
	c := icebreaker.CompleterFunc(func(ctx context.Context, c icebreaker.Completion) (string, error) {
		got = c
		return "  “你好，想和你聊聊。”\n", nil
	})
	g := icebreaker.New(c, time.Second, nil)

	text := g.Icebreaker(context.Background(), "zh", models.RoleVolunteer, models.RolePatient, "刚做完化疗")
	if text != "你好，想和你聊聊。" {
		t.Fatalf("unexpected text %q", text)
	}
	for _, want := range []string{"志愿者", "患者", "刚做完化疗"} {
		if !strings.Contains(got.Prompt, want) {
			t.Fatalf("prompt %q missing %q", got.Prompt, want)
		}
	}
	if got.System == "" || got.Temperature != 0.8 || got.TopP != 0.95 {
		t.Fatalf("unexpected completion settings %+v", got)
	}
}

func TestIcebreaker_Fallbacks(t *testing.T) {
	zh := icebreaker.FallbacksFor("zh")
	en := icebreaker.FallbacksFor("en")
	if zh.IcebreakerError != "你好，看到你也在附近，方便聊聊吗？" || zh.Encouragement != "每一个坚持的瞬间，都是生命的奇迹。" {
		t.Fatalf("unexpected Chinese fallbacks %+v", zh)
	}

	cases := []struct {
		name      string
		completer icebreaker.Completer
		lang      string
		want      string
	}{
		{"error", reply("", errors.New("boom")), "zh", zh.IcebreakerError},
		{"empty", reply("   ", nil), "zh", zh.IcebreakerEmpty},
		{"quotes only", reply(`""`, nil), "zh", zh.IcebreakerEmpty},
		{"no provider", nil, "zh", zh.IcebreakerError},
		{"english error", reply("", errors.New("boom")), "en", en.IcebreakerError},
		{"unknown language", reply("", errors.New("boom")), "fr", zh.IcebreakerError},
		{"panic", icebreaker.CompleterFunc(func(context.Context, icebreaker.Completion) (string, error) {
			panic("provider exploded")
		}), "zh", zh.IcebreakerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := icebreaker.New(tc.completer, time.Second, nil)
			got := g.Icebreaker(context.Background(), tc.lang, models.RolePatient, models.RoleCaregiver, "")
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIcebreaker_Timeout(t *testing.T) {
	c := icebreaker.CompleterFunc(func(ctx context.Context, _ icebreaker.Completion) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	g := icebreaker.New(c, 20*time.Millisecond, nil)

	start := time.Now()
	got := g.Icebreaker(context.Background(), "zh", models.RolePatient, models.RolePatient, "")
	if got != icebreaker.FallbacksFor("zh").IcebreakerError {
		t.Fatalf("unexpected text %q", got)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestIcebreaker_UnknownRolesAndStatus(t *testing.T) {
	var prompt string
	c := icebreaker.CompleterFunc(func(ctx context.Context, c icebreaker.Completion) (string, error) {
		prompt = c.Prompt
		return "hello", nil
	})
	g := icebreaker.New(c, time.Second, nil)

	if got := g.Icebreaker(context.Background(), "en", "", models.RoleCaregiver, ""); got != "hello" {
		t.Fatalf("unexpected text %q", got)
	}
	if !strings.Contains(prompt, "peer") || !strings.Contains(prompt, "caregiver") || !strings.Contains(prompt, "moving forward") {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

func TestEncouragement(t *testing.T) {
	var got icebreaker.Completion
	c := icebreaker.CompleterFunc(func(ctx context.Context, c icebreaker.Completion) (string, error) {
		got = c
		return "「阳光总在风雨后」", nil
	})
	g := icebreaker.New(c, time.Second, nil)

	if text := g.Encouragement(context.Background(), "zh"); text != "阳光总在风雨后" {
		t.Fatalf("unexpected text %q", text)
	}
	if got.Temperature != 1.0 || got.TopP != 0.95 || got.System != "" {
		t.Fatalf("unexpected completion settings %+v", got)
	}

	for _, c := range []icebreaker.Completer{nil, reply("", errors.New("down")), reply("", nil)} {
		g := icebreaker.New(c, time.Second, nil)
		if text := g.Encouragement(context.Background(), "en"); text != icebreaker.FallbacksFor("en").Encouragement {
			t.Fatalf("unexpected fallback %q", text)
		}
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"  plain  ":        "plain",
		`"quoted"`:         "quoted",
		"“ 嵌套 ‘引号’ ”":      "嵌套 ‘引号’",
		"『好』":              "好",
		`"`:                `"`,
		"no \"inner\" trim": "no \"inner\" trim",
	}
	for in, want := range cases {
		if got := icebreaker.Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderTemplate_MissingKey(t *testing.T) {
	if _, err := icebreaker.RenderTemplate("{{.Nope}}", map[string]string{}); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestGenerator_CloseWithoutProvider(t *testing.T) {
	if err := icebreaker.New(nil, 0, nil).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
