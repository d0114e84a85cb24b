package metadata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type baseModel struct {
	ID      int64     `json:"drupal_internal__id" field:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Hidden  string    `json:"-"`
	secret  string
}

type bundleModel struct {
	baseModel
	Body   string          `json:"body" props:"value,format"`
	Tags   []int64         `json:"tags" ref:"term" label:"Tags"`
	Price  decimal.Decimal `json:"price"`
	Score  float64
	OnSale bool `json:"on_sale"`
}

func fieldByName(t *testing.T, fields []FieldDef, name string) FieldDef {
	t.Helper()
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not found", name)
	return FieldDef{}
}

func TestInspectFields_FlattensEmbedded(t *testing.T) {
	fields := InspectFields(bundleModel{})

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"id", "title", "created", "body", "tags", "price", "score", "on_sale"}, names)

	id := fieldByName(t, fields, "id")
	assert.Equal(t, "drupal_internal__id", id.Public())
	assert.Equal(t, TypeInteger, id.Type)

	assert.Equal(t, TypeDate, fieldByName(t, fields, "created").Type)
	assert.Equal(t, TypeNumber, fieldByName(t, fields, "price").Type)
	assert.Equal(t, TypeNumber, fieldByName(t, fields, "score").Type)
	assert.Equal(t, TypeBoolean, fieldByName(t, fields, "on_sale").Type)

	body := fieldByName(t, fields, "body")
	assert.Equal(t, TypeText, body.Type)
	assert.Equal(t, "value", body.MainProperty())
	assert.True(t, body.HasProperty("format"))
	assert.False(t, body.HasProperty("summary"))
}

func TestInspectBundle_SkipsEmbeddedBase(t *testing.T) {
	b := InspectBundle(bundleModel{}, "product", "Product")
	require.Len(t, b.Fields, 5)

	tags := b.Fields[1]
	assert.Equal(t, "tags", tags.Name)
	assert.Equal(t, "Tags", tags.Label)
	assert.True(t, tags.IsReference())
	assert.True(t, tags.Multiple)
	assert.Equal(t, "term", tags.ReferenceType)
	assert.Equal(t, PropertyTargetID, tags.MainProperty())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	def := InspectEntity(baseModel{}, "thing", "Thing", "things", "id")
	def.Bundles = append(def.Bundles, InspectBundle(bundleModel{}, "product", "Product"))
	reg.Register(def)
	reg.Register(EntityDef{Name: "another", Bundles: []BundleDef{{Name: "another"}}})

	assert.True(t, reg.HasResource("thing", "product"))
	assert.False(t, reg.HasResource("thing", "service"))
	assert.False(t, reg.HasResource("nothing", "product"))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "another", list[0].Name)

	got, _ := reg.Get("thing")
	assert.Equal(t, "id", got.Key())
	assert.Len(t, got.FieldsFor("product"), 8)
	assert.Len(t, got.FieldsFor("service"), 3)

	f, ok := got.Field("price")
	require.True(t, ok)
	assert.Equal(t, TypeNumber, f.Type)
}
