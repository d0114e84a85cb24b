// Package dto provides the JSON:API documents returned by the HTTP layer.
package dto

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/domain/query"
)

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// --- Errors ---

// ErrorSource points at the query parameter that caused an error.
type ErrorSource struct {
	Parameter string `json:"parameter,omitempty"`
}

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	Status string         `json:"status"`
	Code   string         `json:"code"`
	Title  string         `json:"title"`
	Detail string         `json:"detail,omitempty"`
	Source *ErrorSource   `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// ErrorDocument is the top-level error response.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// NewErrorDocument converts an AppError. Internal causes are never exposed.
func NewErrorDocument(appErr *apperror.AppError) ErrorDocument {
	obj := ErrorObject{
		Status: strconv.Itoa(appErr.HTTPStatus),
		Code:   appErr.Code,
		Title:  http.StatusText(appErr.HTTPStatus),
		Detail: appErr.Message,
	}
	if p := appErr.Parameter(); p != "" {
		obj.Source = &ErrorSource{Parameter: p}
	}
	if len(appErr.Details) > 0 {
		obj.Meta = make(map[string]any, len(appErr.Details))
		for k, v := range appErr.Details {
			if k != "parameter" {
				obj.Meta[k] = v
			}
		}
		if len(obj.Meta) == 0 {
			obj.Meta = nil
		}
	}
	return ErrorDocument{Errors: []ErrorObject{obj}}
}

// --- Collections ---

// ResourceObject is one row rendered as a JSON:API resource.
type ResourceObject struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

// Links holds pagination links.
type Links struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// CollectionMeta carries the total match count.
type CollectionMeta struct {
	Count int64 `json:"count"`
}

// CollectionDocument is the response of a collection request.
type CollectionDocument struct {
	Data  []ResourceObject `json:"data"`
	Meta  CollectionMeta   `json:"meta"`
	Links Links            `json:"links"`
}

// NewResourceObject splits row into id and attributes. idKey holds the
// resource uuid.
func NewResourceObject(typeName, idKey string, row map[string]any) ResourceObject {
	attrs := make(map[string]any, len(row))
	for k, v := range row {
		if k != idKey {
			attrs[k] = v
		}
	}
	return ResourceObject{Type: typeName, ID: formatID(row[idKey]), Attributes: attrs}
}

func formatID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case [16]byte:
		return uuid.UUID(id).String()
	case uuid.UUID:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// --- Query inspection ---

// QueryDocument shows how a request was parsed and compiled.
type QueryDocument struct {
	Query *query.Query `json:"query"`
	SQL   string       `json:"sql"`
	Args  []any        `json:"args"`
	Count string       `json:"countSql"`
}
