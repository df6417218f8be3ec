package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const itemSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "completed"],
  "properties": {
    "id":        {"type": "integer", "minimum": 1},
    "title":     {"type": "string"},
    "completed": {"type": "boolean"},
    "ownerId":   {"type": "integer"}
  }
}`

const itemListSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"$ref": "item.json"}
}`

const schemaBase = "https://tada.local/schema/"

var (
	itemSchema     *jsonschema.Schema
	itemListSchema *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaBase+"item.json", strings.NewReader(itemSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add item schema: %v", err))
	}
	if err := compiler.AddResource(schemaBase+"items.json", strings.NewReader(itemListSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add item list schema: %v", err))
	}
	itemSchema = compiler.MustCompile(schemaBase + "item.json")
	itemListSchema = compiler.MustCompile(schemaBase + "items.json")
}

// ErrMalformed marks a 2xx response whose body does not look like an item.
var ErrMalformed = errors.New("malformed response")

// validate checks raw JSON against schema and returns the first leaf problem.
func validate(schema *jsonschema.Schema, data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := firstLeaf(ve)
			return fmt.Errorf("%w: %s: %s", ErrMalformed, leaf.InstanceLocation, leaf.Message)
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}
