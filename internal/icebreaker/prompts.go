package icebreaker

import (
	"bytes"
	"text/template"

	"github.com/garnizeh/warmconnect/internal/i18n"
)

// Fallbacks are the fixed phrases returned when the model cannot answer.
type Fallbacks struct {
	// IcebreakerError is used when the provider fails.
	IcebreakerError string
	// IcebreakerEmpty is used when the provider answers with no text.
	IcebreakerEmpty string
	Encouragement   string
}

// FallbacksFor returns the fallback phrases for lang, defaulting to Chinese.
func FallbacksFor(lang string) Fallbacks {
	return Fallbacks{
		IcebreakerError: i18n.T(lang, i18n.MsgIcebreakerError),
		IcebreakerEmpty: i18n.T(lang, i18n.MsgIcebreakerEmpty),
		Encouragement:   i18n.T(lang, i18n.MsgEncouragementFallback),
	}
}

type promptSet struct {
	system        string
	icebreaker    string
	encouragement string
	unknownRole   string
	defaultStatus string
}

var prompts = map[string]promptSet{
	"zh": {
		system:        "你是一个温柔、充满同理心的患友互助助手，旨在帮助肿瘤患者及其家属建立联系。你的语言应该是克制而温暖的，避免任何医疗建议。",
		icebreaker:    "我是一名{{.MyRole}}，我想给附近的一位{{.TargetRole}}打个招呼，对方现在的状态是“{{.TargetStatus}}”。请帮我写一段温暖、得体、无压力的打招呼话语（50字以内），用于发起线下见面的请求。",
		encouragement: "请为癌症患者或家属生成一句简短的每日鼓励语，字数在20字以内，不要说教，要充满力量和希望。",
		unknownRole:   "伙伴",
		defaultStatus: "正在前行",
	},
	"en": {
		system:        "You are a gentle, empathetic peer-support assistant helping cancer patients and their families connect. Your language is restrained and warm, and you never give medical advice.",
		icebreaker:    "I am a {{.MyRole}} and I want to greet a {{.TargetRole}} nearby whose current status is \"{{.TargetStatus}}\". Write a warm, polite, low-pressure greeting (under 50 characters) asking to meet in person.",
		encouragement: "Write one short line of daily encouragement for cancer patients or their families, under 20 words, not preachy, full of strength and hope.",
		unknownRole:   "peer",
		defaultStatus: "moving forward",
	},
}

func promptsFor(lang string) promptSet {
	if p, ok := prompts[lang]; ok {
		return p
	}
	return prompts["zh"]
}

// RenderTemplate renders a prompt template with the provided data.
func RenderTemplate(tmpl string, data any) (string, error) {
	tpl, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
