package api

import (
	"strconv"
	"testing"
	"time"

	"github.com/garnizeh/warmconnect/pkg/models"
)

func TestProfileRequestApply_AvatarSeed(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	millis := strconv.FormatInt(now.UnixMilli(), 10)

	var p models.Profile
	profileRequest{Nickname: "  ", Handle: "wx"}.apply(&p, models.RolePatient, now)
	if want := models.AvatarURL(models.DefaultNickname + millis); p.Avatar != want {
		t.Fatalf("blank nickname should seed from the display default: want %q got %q", want, p.Avatar)
	}

	profileRequest{Nickname: "小林", Handle: "wx"}.apply(&p, models.RolePatient, now)
	if want := models.AvatarURL("小林" + millis); p.Avatar != want {
		t.Fatalf("want %q got %q", want, p.Avatar)
	}

	profileRequest{Nickname: "小林", Handle: "wx", Avatar: "https://cdn/a.png"}.apply(&p, models.RolePatient, now)
	if p.Avatar != "https://cdn/a.png" {
		t.Fatalf("supplied avatar must be kept, got %q", p.Avatar)
	}
}
