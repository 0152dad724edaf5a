// Package schema validates todo documents before a backend stores them.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Makepad-fr/tadasync/internal/model"
)

const (
	fieldsURL = "tada://schema/todo-fields.json"
	patchURL  = "tada://schema/todo-patch.json"
)

// Text must hold at least one non-space character.
const fieldsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["text", "completed"],
  "additionalProperties": false,
  "properties": {
    "text": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "completed": {"type": "boolean"}
  }
}`

const patchSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "minProperties": 1,
  "additionalProperties": false,
  "properties": {
    "text": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "completed": {"type": "boolean"}
  }
}`

// ValidationError lists every schema violation of one document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid todo document: " + strings.Join(e.Problems, "; ")
}

var (
	compileOnce sync.Once
	fieldsSch   *jsonschema.Schema
	patchSch    *jsonschema.Schema
	compileErr  error
)

func compiled() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		if err := c.AddResource(fieldsURL, strings.NewReader(fieldsSchema)); err != nil {
			compileErr = fmt.Errorf("add fields schema: %w", err)
			return
		}
		if err := c.AddResource(patchURL, strings.NewReader(patchSchema)); err != nil {
			compileErr = fmt.Errorf("add patch schema: %w", err)
			return
		}
		if fieldsSch, compileErr = c.Compile(fieldsURL); compileErr != nil {
			return
		}
		patchSch, compileErr = c.Compile(patchURL)
	})
	return fieldsSch, patchSch, compileErr
}

// ValidateFields checks a full document body.
func ValidateFields(f model.Fields) error {
	fs, _, err := compiled()
	if err != nil {
		return err
	}
	return validate(fs, f)
}

// ValidatePatch checks a partial update. An empty patch is rejected.
func ValidatePatch(p model.Patch) error {
	_, ps, err := compiled()
	if err != nil {
		return err
	}
	return validate(ps, p)
}

// ValidateRaw checks an undecoded body, as it arrives over the wire.
// partial selects the patch schema.
func ValidateRaw(raw []byte, partial bool) error {
	fs, ps, err := compiled()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ValidationError{Problems: []string{"not JSON: " + err.Error()}}
	}
	sch := fs
	if partial {
		sch = ps
	}
	return check(sch, doc)
}

func validate(sch *jsonschema.Schema, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal for validation: %w", err)
	}
	return check(sch, doc)
}

func check(sch *jsonschema.Schema, doc any) error {
	err := sch.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{}
	collect(out, ve)
	if len(out.Problems) == 0 {
		out.Problems = append(out.Problems, ve.Message)
	}
	return out
}

// collect walks to the leaf causes; the top-level message only says "doesn't validate".
func collect(out *ValidationError, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out.Problems = append(out.Problems, loc+": "+ve.Message)
		return
	}
	for _, c := range ve.Causes {
		collect(out, c)
	}
}
