package mlcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainstamp/ChainStamp/tracer"
)

func TestSetKnownField(t *testing.T) {
	card := NewModelCard()
	require.NoError(t, card.Set("model_name", "resnet50"))
	require.NoError(t, card.Set("metrics", []string{"accuracy", "f1"}))

	v, ok := card.Get("model_name")
	require.True(t, ok)
	assert.Equal(t, "resnet50", v)

	fields := card.Fields()
	assert.Len(t, fields, 2)
}

func TestSetUnknownFieldListsValid(t *testing.T) {
	card := NewModelCard()
	err := card.Set("model_nam", "typo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"model_nam"`)
	// the error names every valid field so the caller can self correct
	for field := range ModelCardSchema {
		assert.Contains(t, err.Error(), field)
	}
	assert.Empty(t, card.Fields())
}

func TestMergeAtomic(t *testing.T) {
	card := NewDataCard()
	err := card.Merge(map[string]interface{}{
		"pretty_name": "imagenet subset",
		"bogus":       1,
	})
	require.Error(t, err)
	// one unknown field rejects the whole merge
	assert.Empty(t, card.Fields())

	require.NoError(t, card.Merge(map[string]interface{}{
		"pretty_name": "imagenet subset",
		"license":     "mit",
	}))
	assert.Len(t, card.Fields(), 2)
}

func TestSchemasDisjointBuilders(t *testing.T) {
	model := NewModelCard()
	data := NewDataCard()

	// pipeline_tag only exists on model cards
	assert.NoError(t, model.Set("pipeline_tag", "image-classification"))
	assert.Error(t, data.Set("pipeline_tag", "image-classification"))

	// task_categories only exists on data cards
	assert.Error(t, model.Set("task_categories", []string{"vision"}))
	assert.NoError(t, data.Set("task_categories", []string{"vision"}))
}

func TestDescribe(t *testing.T) {
	card := NewModelCard()
	assert.NotEmpty(t, card.Describe("license"))
	assert.Empty(t, card.Describe("no_such_field"))
}

func TestFieldsCopy(t *testing.T) {
	card := NewModelCard()
	require.NoError(t, card.Set("tags", "vision"))
	fields := card.Fields()
	fields["tags"] = "mutated"

	v, _ := card.Get("tags")
	assert.Equal(t, "vision", v)
}

func TestApply(t *testing.T) {
	acc := tracer.NewAccumulator("experiment")

	model := NewModelCard()
	require.NoError(t, model.Set("model_name", "resnet50"))
	model.Apply(acc)

	data := NewDataCard()
	require.NoError(t, data.Set("pretty_name", "imagenet subset"))
	data.Apply(acc)

	fields := acc.Fields()
	require.Contains(t, fields, ModelCardField)
	require.Contains(t, fields, DataCardField)

	mc, ok := fields[ModelCardField].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "resnet50", mc["model_name"])
}
