package llm

import (
	"testing"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nestedSchemaFixture struct {
	Name  string `json:"name"`
	Inner struct {
		Value int `json:"value"`
	} `json:"inner"`
	Items []struct {
		Label string `json:"label"`
	} `json:"items"`
}

func TestGenerateSchema_ClosesEveryObject(t *testing.T) {
	schema, err := GenerateSchema[nestedSchemaFixture]()
	require.NoError(t, err)

	assert.Equal(t, false, schema[additionalPropertiesKey])
	assert.Equal(t, []string{"inner", "items", "name"}, schema[requiredKey])

	props := schema[propertiesKey].(map[string]any)
	inner := props["inner"].(map[string]any)
	assert.Equal(t, false, inner[additionalPropertiesKey])
	assert.Equal(t, []string{"value"}, inner[requiredKey])

	items := props["items"].(map[string]any)[itemsKey].(map[string]any)
	assert.Equal(t, false, items[additionalPropertiesKey])
	assert.Equal(t, []string{"label"}, items[requiredKey])
}

func TestClassificationSchema(t *testing.T) {
	schema, err := classificationSchema(model.AllCategories)
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "confidence", "reasoning"}, schema[requiredKey])

	props := schema[propertiesKey].(map[string]any)
	category := props["category"].(map[string]any)
	enum, ok := category[enumKey].([]any)
	require.True(t, ok)
	assert.Len(t, enum, len(model.AllCategories))
	assert.Contains(t, enum, "unknown")
	assert.Equal(t, "number", props["confidence"].(map[string]any)[typeKey])
}
