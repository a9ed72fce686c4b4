package llm

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/skillrecordings/support-sub010/internal/model"
)

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
	enumKey                 = "enum"
)

// GenerateSchema reflects T into a JSON schema accepted by strict structured
// output modes: every object is closed and every property is required.
func GenerateSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schemaObj, err := schemaToMap(reflector.Reflect(v))
	if err != nil {
		return nil, err
	}
	ensureStrictCompliance(schemaObj)
	return schemaObj, nil
}

// classificationSchema is the response schema with the category property
// restricted to the given labels.
func classificationSchema(categories []model.Category) (map[string]any, error) {
	schema, err := GenerateSchema[ClassificationResponse]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate classification schema: %w", err)
	}

	properties, ok := schema[propertiesKey].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("classification schema has no properties")
	}
	category, ok := properties["category"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("classification schema has no category property")
	}
	labels := make([]any, 0, len(categories))
	for _, c := range categories {
		labels = append(labels, string(c))
	}
	category[enumKey] = labels
	return schema, nil
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func ensureStrictCompliance(schema map[string]any) {
	if schemaType, ok := schema[typeKey].(string); ok && schemaType == "object" {
		schema[additionalPropertiesKey] = false

		if properties, ok := schema[propertiesKey].(map[string]any); ok {
			requiredFields := make([]string, 0, len(properties))
			for propName := range properties {
				requiredFields = append(requiredFields, propName)
			}
			sort.Strings(requiredFields)
			if len(requiredFields) > 0 {
				schema[requiredKey] = requiredFields
			}
		}
	}

	if properties, ok := schema[propertiesKey].(map[string]any); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]any); ok {
				ensureStrictCompliance(propMap)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]any); ok {
		ensureStrictCompliance(items)
	}

	if additionalProps, ok := schema[additionalPropertiesKey].(map[string]any); ok {
		ensureStrictCompliance(additionalProps)
	}
}
