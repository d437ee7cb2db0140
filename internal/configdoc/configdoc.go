// Package configdoc turns the JSON side of a document (a feature
// selection file companion to a .uvl model) into a ConfigDocument,
// mirroring internal/ast's role for the UVL dialect. Grounded on
// pipeline.rs's config::parse_json call, whose signature this package's
// Parse matches (tree, source, uri, timestamp) -> ConfigDocument.
package configdoc

import (
	"encoding/json"
	"fmt"
	"time"

	jsonschema "github.com/google/jsonschema-go/jsonschema"

	"github.com/Koenneker/uvl-lsp/internal/errors"
	"github.com/Koenneker/uvl-lsp/internal/fileid"
	"github.com/Koenneker/uvl-lsp/internal/parsetree"
	"github.com/Koenneker/uvl-lsp/internal/rope"
)

// ConfigDocument is the product of visiting a JSON configuration
// document: a flat map of feature name -> selected, plus any errors
// gathered while parsing or schema-validating it.
type ConfigDocument struct {
	URI        string
	Timestamp  time.Time
	Selections map[string]bool
	Errors     []error
}

// selectionSchema describes the shape a feature-selection file must
// have: an object mapping feature names to booleans.
var selectionSchema = &jsonschema.Schema{
	Type: "object",
	AdditionalProperties: &jsonschema.Schema{
		Type: "boolean",
	},
}

var resolvedSelectionSchema *jsonschema.Resolved

func init() {
	resolved, err := selectionSchema.Resolve(nil)
	if err != nil {
		// The schema above is a fixed literal; a failure here is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("configdoc: invalid built-in schema: %v", err))
	}
	resolvedSelectionSchema = resolved
}

// Parse builds a ConfigDocument from a parsed JSON tree and its
// source. tree carries only well-formedness diagnostics (internal/
// parsetree.ParseJSON never produces typed nodes); this function does
// its own decode and schema validation on top of that.
func Parse(tree *parsetree.Tree, src *rope.Rope, uri string, ts time.Time) *ConfigDocument {
	doc := &ConfigDocument{URI: uri, Timestamp: ts, Selections: make(map[string]bool)}
	fid := fileid.New(uri)

	for _, n := range tree.Errors {
		doc.Errors = append(doc.Errors, errors.NewParseError(fid, uri, n.Start.Row, n.Start.Column, n.Text, fmt.Errorf("%s", n.ErrorMessage)))
	}
	if len(tree.Errors) > 0 {
		// Malformed JSON; nothing further to validate or decode.
		return doc
	}

	text := src.String()
	var raw interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		doc.Errors = append(doc.Errors, errors.NewConfigError("root", "", err))
		return doc
	}

	if err := resolvedSelectionSchema.Validate(raw); err != nil {
		doc.Errors = append(doc.Errors, errors.NewConfigError("root", "", fmt.Errorf("schema validation failed: %w", err)))
		return doc
	}

	obj, _ := raw.(map[string]interface{})
	for k, v := range obj {
		b, ok := v.(bool)
		if !ok {
			doc.Errors = append(doc.Errors, errors.NewConfigError(k, fmt.Sprintf("%v", v), fmt.Errorf("expected boolean selection")))
			continue
		}
		doc.Selections[k] = b
	}
	return doc
}
