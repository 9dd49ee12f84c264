package scan

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed scan.schema.json
var schemaJSON []byte

const schemaURL = "scan.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("failed to load scan schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("failed to compile scan schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks a scan document against the layout schema.
// A *jsonschema.ValidationError is returned (wrapped) for schema violations.
func Validate(doc []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("failed to parse scan document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("scan document does not match schema: %w", err)
	}
	return nil
}
