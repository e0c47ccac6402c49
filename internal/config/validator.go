package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// definitionSchema is the JSON Schema every definition file must
// satisfy before it is decoded into typed structs.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "tests"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "tests": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "url", "concurrency", "duration"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "method": {"type": "string"},
          "headers": {"type": "object", "additionalProperties": {"type": "string"}},
          "body": {"type": "string"},
          "concurrency": {"type": "integer", "minimum": 1},
          "duration": {"type": "string", "minLength": 1},
          "rampUp": {"type": "string"},
          "timeout": {"type": "string"},
          "warmup": {"type": "integer", "minimum": 0},
          "check": {
            "type": "object",
            "required": ["path", "equals"],
            "properties": {
              "path": {"type": "string", "minLength": 1},
              "equals": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

// validateSchema validates raw YAML against the embedded schema. The
// YAML is re-encoded as JSON first so the schema library sees plain
// JSON types.
func validateSchema(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("cannot convert config to JSON: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("cannot decode config: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("definition.json", strings.NewReader(definitionSchema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("definition.json")
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return err
	}
	return nil
}
