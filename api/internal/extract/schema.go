package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	questionsSchemaName  = "questions"
	evaluationSchemaName = "evaluation"
)

// QuestionsSchema is the JSON Schema of QuestionSet; it is also shown to the model.
const QuestionsSchema = `{
  "type": "object",
  "required": ["short_questions", "descriptive_questions"],
  "properties": {
    "short_questions": {
      "type": "array",
      "minItems": 5,
      "maxItems": 5,
      "items": {"type": "string", "minLength": 1}
    },
    "descriptive_questions": {
      "type": "array",
      "minItems": 5,
      "maxItems": 5,
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

// EvaluationSchema is the JSON Schema of EvaluationResult.
const EvaluationSchema = `{
  "type": "object",
  "required": ["evaluation", "score"],
  "properties": {
    "evaluation": {"type": "string", "minLength": 1},
    "score": {"type": "integer", "minimum": 0, "maximum": 10}
  }
}`

var schemaSources = map[string]string{
	questionsSchemaName:  QuestionsSchema,
	evaluationSchemaName: EvaluationSchema,
}

var schemaCache sync.Map // name -> *jsonschema.Schema

// validate checks a result against its contract schema.
func validate(name string, v any) error {
	compiled, err := compiledSchema(name)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}
	src, ok := schemaSources[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", name, err)
	}
	schemaCache.Store(name, compiled)
	return compiled, nil
}
