package surreal

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema describes the /sql response: an array with one entry per
// statement, each either OK with a result or ERR with a detail.
const responseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["status"],
    "properties": {
      "time": {"type": "string"}
    },
    "oneOf": [
      {
        "required": ["status", "result"],
        "properties": {"status": {"enum": ["OK"]}}
      },
      {
        "required": ["status", "detail"],
        "properties": {
          "status": {"enum": ["ERR"]},
          "detail": {"type": "string"}
        }
      }
    ]
  }
}`

var compiledSchema = mustCompile(responseSchema)

func mustCompile(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid response schema: %v", err))
	}
	return schema
}

// validateResponse rejects bodies that are not a statement result array.
func validateResponse(body []byte) error {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("unable to parse json: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("unexpected response shape: %s", strings.Join(msgs, "; "))
	}
	return nil
}
