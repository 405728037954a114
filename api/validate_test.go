package api_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/garnizeh/warmconnect/api"
)

func testSchemas(t *testing.T) *api.SchemaLoader {
	t.Helper()
	fsys := fstest.MapFS{
		"schemas/location.json": {Data: []byte(`{"type":"object","required":["lat","lng"],"properties":{"lat":{"type":"number","minimum":-90,"maximum":90},"lng":{"type":"number"}}}`)},
		"schemas/note.json":     {Data: []byte(`{"type":"object","properties":{"text":{"type":"string","maxLength":3}}}`)},
		"schemas/readme.txt":    {Data: []byte("ignored")},
	}
	l, err := api.NewSchemaLoader(fsys)
	if err != nil {
		t.Fatalf("NewSchemaLoader: %v", err)
	}
	return l
}

func TestSchemaLoader_Validate(t *testing.T) {
	l := testSchemas(t)
	ctx := context.Background()

	if _, ok := l.GetSchema("readme"); ok {
		t.Fatalf("non-json files must not be loaded")
	}
	if err := l.Validate(ctx, "location", []byte(`{"lat":31.2,"lng":121.4}`)); err != nil {
		t.Fatalf("expected valid body, got %v", err)
	}

	var ve *api.ValidationError
	if err := l.Validate(ctx, "location", []byte(`{"lat":120}`)); !errors.As(err, &ve) || len(ve.Problems) == 0 {
		t.Fatalf("expected validation problems, got %v", err)
	}
	if err := l.Validate(ctx, "note", []byte(`{"text":"你好呀"}`)); err != nil {
		t.Fatalf("maxLength should count characters, got %v", err)
	}
	if err := l.Validate(ctx, "note", []byte(`{"text":"abcd"}`)); !errors.As(err, &ve) {
		t.Fatalf("expected maxLength violation, got %v", err)
	}
	if err := l.Validate(ctx, "location", []byte(`{not json`)); err == nil || errors.As(err, &ve) {
		t.Fatalf("expected json error, got %v", err)
	}
	if err := l.Validate(ctx, "missing", []byte(`{}`)); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected unknown schema error, got %v", err)
	}
}

func TestSchemaLoader_BadSchema(t *testing.T) {
	fsys := fstest.MapFS{"schemas/bad.json": {Data: []byte(`{`)}}
	if _, err := api.NewSchemaLoader(fsys); err == nil {
		t.Fatalf("expected compile error")
	}
}
