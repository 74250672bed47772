package intent

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai/jsonschema"
	"gopkg.in/yaml.v3"
)

const (
	DefaultToolName            = "determine_intent_and_respond"
	DefaultToolDescription     = "Determine intent and generate a response."
	DefaultIntentDescription   = "Intent of the query."
	DefaultResponseDescription = "Generated response."
)

// ToolSpec describes the single function the model is forced to call. Only the
// wording is configurable; the tool always requires the intent and response
// string fields.
type ToolSpec struct {
	Model               string  `yaml:"model"`
	Name                string  `yaml:"name"`
	Description         string  `yaml:"description"`
	IntentDescription   string  `yaml:"intent_description"`
	ResponseDescription string  `yaml:"response_description"`
	Temperature         float32 `yaml:"temperature"`
}

// DefaultToolSpec returns the built-in tool wording for model.
func DefaultToolSpec(model string) ToolSpec {
	return ToolSpec{
		Model:               model,
		Name:                DefaultToolName,
		Description:         DefaultToolDescription,
		IntentDescription:   DefaultIntentDescription,
		ResponseDescription: DefaultResponseDescription,
	}
}

// LoadToolSpec reads a YAML override on top of DefaultToolSpec(model). An
// empty path returns the defaults.
func LoadToolSpec(path, model string) (ToolSpec, error) {
	spec := DefaultToolSpec(model)
	if path == "" {
		return spec, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return spec, errors.Wrapf(err, "read intent spec %s", path)
	}
	var override ToolSpec
	if err := yaml.Unmarshal(b, &override); err != nil {
		return spec, errors.Wrapf(err, "parse intent spec %s", path)
	}
	spec.merge(override)
	return spec, nil
}

func (s *ToolSpec) merge(o ToolSpec) {
	if o.Model != "" {
		s.Model = o.Model
	}
	if o.Name != "" {
		s.Name = o.Name
	}
	if o.Description != "" {
		s.Description = o.Description
	}
	if o.IntentDescription != "" {
		s.IntentDescription = o.IntentDescription
	}
	if o.ResponseDescription != "" {
		s.ResponseDescription = o.ResponseDescription
	}
	if o.Temperature > 0 {
		s.Temperature = o.Temperature
	}
}

func (s ToolSpec) parameters() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"intent":   {Type: jsonschema.String, Description: s.IntentDescription},
			"response": {Type: jsonschema.String, Description: s.ResponseDescription},
		},
		Required: []string{"intent", "response"},
	}
}
