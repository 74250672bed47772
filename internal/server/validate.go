package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"voice-assistant-backend/internal/types"
)

// voiceInputSchema describes a VoiceInput body: text must contain at least one
// non-space character, user_id is an optional string. An explicit null
// user_id is rejected.
const voiceInputSchema = `{
	"type": "object",
	"properties": {
		"text": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"user_id": {"type": "string"}
	},
	"required": ["text"]
}`

var voiceInputLoader = gojsonschema.NewStringLoader(voiceInputSchema)

// errMalformedJSON is returned for bodies that are not JSON at all.
type errMalformedJSON struct{ err error }

func (e errMalformedJSON) Error() string { return "invalid JSON body" }

// errSchema lists the schema violations of an otherwise valid JSON body.
type errSchema struct{ violations []string }

func (e errSchema) Error() string { return strings.Join(e.violations, "; ") }

func decodeVoiceInput(body []byte) (types.VoiceInput, error) {
	var in types.VoiceInput
	if !json.Valid(body) {
		return in, errMalformedJSON{}
	}

	result, err := gojsonschema.Validate(voiceInputLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return in, errMalformedJSON{err: err}
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			violations = append(violations, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return in, errSchema{violations: violations}
	}

	if err := json.Unmarshal(body, &in); err != nil {
		return in, errMalformedJSON{err: err}
	}
	return in, nil
}
