package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const maxBodyBytes = 64 << 10

// SchemaLoader compiles and caches the JSON schemas request bodies are
// checked against. Schemas are keyed by file name without extension.
type SchemaLoader struct {
	fsys  fs.FS
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewSchemaLoader loads every *.json file found under the schemas directory of fsys.
func NewSchemaLoader(fsys fs.FS) (*SchemaLoader, error) {
	l := &SchemaLoader{fsys: fsys, cache: make(map[string]*jsonschema.Schema)}
	if err := l.Reload(); err != nil {
		return nil, err
	}

	return l, nil
}

// GetSchema returns the compiled schema called name.
func (l *SchemaLoader) GetSchema(name string) (*jsonschema.Schema, bool) {
	l.mu.RLock()
	s, ok := l.cache[name]
	l.mu.RUnlock()

	return s, ok
}

// Reload recompiles all schemas.
func (l *SchemaLoader) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := fs.Glob(l.fsys, "schemas/*.json")
	if err != nil {
		return fmt.Errorf("list schemas: %w", err)
	}

	newCache := make(map[string]*jsonschema.Schema, len(files))
	for _, f := range files {
		b, err := fs.ReadFile(l.fsys, f)
		if err != nil {
			return fmt.Errorf("read schema %s: %w", f, err)
		}

		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", f, err)
		}

		newCache[strings.TrimSuffix(path.Base(f), ".json")] = rs
	}

	l.cache = newCache
	return nil
}

// ValidationError lists the schema violations of a request body.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

var errBadJSON = errors.New("invalid json")

// Validate checks body against the named schema.
func (l *SchemaLoader) Validate(ctx context.Context, name string, body []byte) error {
	schema, ok := l.GetSchema(name)
	if !ok {
		return fmt.Errorf("no schema named %q", name)
	}
	if !json.Valid(body) {
		return errBadJSON
	}

	verrs, err := schema.ValidateBytes(ctx, body)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if len(verrs) > 0 {
		ve := &ValidationError{}
		for _, v := range verrs {
			p := v.PropertyPath
			if p == "" || p == "/" {
				ve.Problems = append(ve.Problems, v.Message)
				continue
			}
			ve.Problems = append(ve.Problems, p+": "+v.Message)
		}
		return ve
	}

	return nil
}

// decodeBody reads the request body, validates it against the named schema
// and decodes it into dst. On failure it writes a 400 response and returns false.
func (l *SchemaLoader) decodeBody(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, "cannot read request body", http.StatusBadRequest)
		return false
	}
	if len(body) > maxBodyBytes {
		writeError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}

	if err := l.Validate(r.Context(), name, body); err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, ve.Error(), http.StatusBadRequest)
		case errors.Is(err, errBadJSON):
			writeError(w, "invalid json", http.StatusBadRequest)
		default:
			logger.Error("validate request", "schema", name, "err", err)
			writeError(w, "internal error", http.StatusInternalServerError)
		}
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return false
	}

	return true
}
