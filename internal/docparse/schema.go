package docparse

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema is the contract consumers of a serialized Result rely on:
// key absence means "not detected", monetary fields are strictly positive,
// and confidence stays inside the clamp range.
const resultSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["full_text", "kind", "confidence"],
  "properties": {
    "full_text": {"type": "string"},
    "kind": {"type": "string", "enum": ["TICKET", "FACTURA", "UNKNOWN"]},
    "confidence": {"type": "integer", "minimum": 10, "maximum": 98},
    "ticket": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "establishment": {"type": "string", "minLength": 1},
        "address": {"type": "string", "minLength": 1},
        "phone": {"type": "string", "minLength": 1},
        "tax_id": {"type": "string", "minLength": 1},
        "date": {"type": "string", "minLength": 1},
        "date_defaulted": {"type": "boolean"},
        "time": {"type": "string", "minLength": 1},
        "total": {"type": "number", "exclusiveMinimum": 0},
        "subtotal": {"type": "number", "exclusiveMinimum": 0},
        "iva": {"type": "number", "exclusiveMinimum": 0},
        "payment_method": {"type": "string", "minLength": 1},
        "line_items": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["name", "total_price"],
            "properties": {
              "name": {"type": "string", "minLength": 2},
              "total_price": {"type": "number", "exclusiveMinimum": 0}
            }
          }
        }
      }
    },
    "invoice": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "uuid": {"type": "string", "minLength": 1},
        "issuer_tax_id": {"type": "string", "minLength": 1},
        "receiver_tax_id": {"type": "string", "minLength": 1},
        "series": {"type": "string", "minLength": 1},
        "folio": {"type": "string", "minLength": 1},
        "issue_date": {"type": "string", "minLength": 1},
        "issuer_name": {"type": "string", "minLength": 1},
        "total": {"type": "number", "exclusiveMinimum": 0},
        "subtotal": {"type": "number", "exclusiveMinimum": 0},
        "iva": {"type": "number", "exclusiveMinimum": 0}
      }
    }
  },
  "not": {"required": ["ticket", "invoice"]}
}`

var compiledResultSchema = jsonschema.MustCompileString("result.schema.json", resultSchema)

// ValidateResultJSON checks a serialized Result against the output
// contract. Callers run it before persisting or returning a result.
func ValidateResultJSON(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if err := compiledResultSchema.Validate(doc); err != nil {
		return fmt.Errorf("result schema: %w", err)
	}
	return nil
}
