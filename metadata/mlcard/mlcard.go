// Package mlcard provides model and data card builders over fixed field
// schemas. The schemas follow the common ML card layout, unknown fields are
// rejected up front so typos never end up in a ledger record.
package mlcard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chainstamp/ChainStamp/tracer"
)

// Accumulator fields the cards are stored under.
const (
	ModelCardField = "model_card"
	DataCardField  = "data_card"
)

// ModelCardSchema maps every valid model card field to its description.
var ModelCardSchema = map[string]string{
	"model_name":   "name of the model",
	"base_model":   "identifier of the model this one derives from",
	"library_name": "library used to train or run the model",
	"pipeline_tag": "task pipeline the model serves",
	"language":     "language or list of languages covered",
	"license":      "license identifier",
	"license_name": "license display name",
	"license_link": "link to the license text",
	"datasets":     "datasets used for training",
	"metrics":      "metrics used for evaluation",
	"eval_results": "evaluation results on the declared metrics",
	"tags":         "free form tags",
}

// DataCardSchema maps every valid data card field to its description.
var DataCardSchema = map[string]string{
	"pretty_name":          "human readable dataset name",
	"annotations_creators": "how annotations were produced",
	"language_creators":    "how the language data was produced",
	"language":             "language or list of languages covered",
	"license":              "license identifier",
	"multilinguality":      "monolingual, multilingual or translation",
	"size_categories":      "bucketed number of examples",
	"source_datasets":      "upstream datasets this one derives from",
	"task_categories":      "task categories the dataset supports",
	"task_ids":             "precise task identifiers",
	"paperswithcode_id":    "dataset id on paperswithcode.com",
	"config_names":         "configuration names within the dataset",
}

// Card collects field values against a fixed schema before they are applied
// to an accumulator.
type Card struct {
	kind   string
	field  string
	schema map[string]string
	values map[string]interface{}
}

// NewModelCard returns an empty card validated against ModelCardSchema.
func NewModelCard() *Card {
	return &Card{
		kind:   "model card",
		field:  ModelCardField,
		schema: ModelCardSchema,
		values: make(map[string]interface{}),
	}
}

// NewDataCard returns an empty card validated against DataCardSchema.
func NewDataCard() *Card {
	return &Card{
		kind:   "data card",
		field:  DataCardField,
		schema: DataCardSchema,
		values: make(map[string]interface{}),
	}
}

// Set stores value under field. Fields outside the schema are rejected with
// an error naming all valid fields.
func (c *Card) Set(field string, value interface{}) error {
	if _, ok := c.schema[field]; !ok {
		return fmt.Errorf("unknown %s field %q, valid fields: %s",
			c.kind, field, strings.Join(c.ValidFields(), ", "))
	}
	c.values[field] = value
	return nil
}

// Merge stores all given fields. Validation happens before anything is
// stored, one unknown field rejects the whole merge.
func (c *Card) Merge(fields map[string]interface{}) error {
	for field := range fields {
		if _, ok := c.schema[field]; !ok {
			return fmt.Errorf("unknown %s field %q, valid fields: %s",
				c.kind, field, strings.Join(c.ValidFields(), ", "))
		}
	}
	for field, value := range fields {
		c.values[field] = value
	}
	return nil
}

// Get returns the stored value of field.
func (c *Card) Get(field string) (interface{}, bool) {
	v, ok := c.values[field]
	return v, ok
}

// Fields returns a copy of the filled fields.
func (c *Card) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// ValidFields returns the schema field names in sorted order.
func (c *Card) ValidFields() []string {
	fields := make([]string, 0, len(c.schema))
	for field := range c.schema {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Describe returns the schema description of field, empty when the field is
// not part of the schema.
func (c *Card) Describe(field string) string {
	return c.schema[field]
}

// Apply stores the filled fields on the accumulator under the card's
// package field.
func (c *Card) Apply(acc *tracer.Accumulator) {
	acc.UpdateKV(c.field, c.Fields())
}
