package dto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"jsonapiq/internal/core/apperror"
)

func TestNewErrorDocument(t *testing.T) {
	doc := NewErrorDocument(apperror.NewMalformedSort("bad sort").WithDetail("value", "-"))

	assert.Equal(t, ErrorDocument{Errors: []ErrorObject{{
		Status: "400",
		Code:   apperror.CodeMalformedSort,
		Title:  "Bad Request",
		Detail: "bad sort",
		Source: &ErrorSource{Parameter: "sort"},
		Meta:   map[string]any{"value": "-"},
	}}}, doc)

	doc = NewErrorDocument(apperror.NewNotFound("resource type", "node--blog"))
	assert.Nil(t, doc.Errors[0].Source)
	assert.Equal(t, "404", doc.Errors[0].Status)
}

func TestNewResourceObject(t *testing.T) {
	id := uuid.MustParse("6f0a3e5e-1b8e-4c1e-9d7a-2f7d0b6a4c11")
	obj := NewResourceObject("node--article", "id", map[string]any{
		"id":    [16]byte(id),
		"title": "Hello",
	})
	assert.Equal(t, ResourceObject{
		Type:       "node--article",
		ID:         id.String(),
		Attributes: map[string]any{"title": "Hello"},
	}, obj)

	assert.Equal(t, "42", formatID(42))
	assert.Empty(t, formatID(nil))
}
