package v1

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsonapiq/internal/domain/content"
	"jsonapiq/internal/domain/filter"
	"jsonapiq/internal/domain/query"
	"jsonapiq/internal/infrastructure/http/v1/dto"
	"jsonapiq/internal/infrastructure/storage/postgres/entity_repo"
	"jsonapiq/internal/metadata"
	"jsonapiq/pkg/logger"
)

type fakeFinder struct {
	got    *query.Query
	result entity_repo.Result
	err    error
}

func (f *fakeFinder) Find(_ context.Context, q *query.Query) (entity_repo.Result, error) {
	f.got = q
	return f.result, f.err
}

func newTestConfig(finder *fakeFinder) RouterConfig {
	registry := content.NewRegistry()
	resolver := metadata.NewFieldResolver(registry)
	cfg := RouterConfig{
		Logger:   logger.Nop(),
		Registry: registry,
		Parser:   query.NewParser(query.Config{Paths: resolver, Includes: resolver}),
		Compiler: entity_repo.NewCompiler(registry),
	}
	if finder != nil {
		cfg.Finder = finder
	}
	return cfg
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorObject {
	t.Helper()
	assert.Equal(t, dto.ContentType, w.Header().Get("Content-Type"))
	var doc dto.ErrorDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Len(t, doc.Errors, 1)
	return doc.Errors[0]
}

func TestHealth(t *testing.T) {
	r := NewRouter(newTestConfig(nil))

	w := serve(t, r, "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, r, "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "disabled")

	w = serve(t, r, "/health/info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "node--article")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCollection_UnknownResource(t *testing.T) {
	r := NewRouter(newTestConfig(&fakeFinder{}))

	w := serve(t, r, "/jsonapi/node/blog")
	assert.Equal(t, http.StatusNotFound, w.Code)
	e := decodeErrors(t, w)
	assert.Equal(t, "404", e.Status)
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestCollection_MalformedQuery(t *testing.T) {
	r := NewRouter(newTestConfig(&fakeFinder{}))

	tests := []struct {
		target string
		code   string
		param  string
	}{
		{"/jsonapi/node/article?filter[a][condition][path]=title&filter[a][condition][operator]=LIKE&filter[a][condition][value]=x", "MALFORMED_FILTER", "filter"},
		{"/jsonapi/node/article?filter[@root][condition][path]=title&filter[@root][condition][value]=x", "RESERVED_FILTER_ID", "filter"},
		{"/jsonapi/node/article?sort=title,,created", "MALFORMED_SORT", "sort"},
		{"/jsonapi/node/article?page[offset]=-1", "MALFORMED_PAGE", "page"},
		{"/jsonapi/node/article?filter[nope]=1", "UNRESOLVABLE_FIELD", "filter"},
		{"/jsonapi/node/article/query?include=title", "UNRESOLVABLE_FIELD", "include"},
	}
	for _, tt := range tests {
		t.Run(tt.code+" "+tt.param, func(t *testing.T) {
			w := serve(t, r, tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			e := decodeErrors(t, w)
			assert.Equal(t, tt.code, e.Code)
			require.NotNil(t, e.Source)
			assert.Equal(t, tt.param, e.Source.Parameter)
		})
	}
}

func TestCollection_List(t *testing.T) {
	finder := &fakeFinder{result: entity_repo.Result{
		Rows:  []map[string]any{{"id": "6f0a3e5e-1b8e-4c1e-9d7a-2f7d0b6a4c11", "title": "Hello"}},
		Total: 3,
	}}
	r := NewRouter(newTestConfig(finder))

	w := serve(t, r, "/jsonapi/node/article?filter[title]=Hello&page[limit]=1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, dto.ContentType, w.Header().Get("Content-Type"))

	var doc dto.CollectionDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Len(t, doc.Data, 1)
	assert.Equal(t, "node--article", doc.Data[0].Type)
	assert.Equal(t, "6f0a3e5e-1b8e-4c1e-9d7a-2f7d0b6a4c11", doc.Data[0].ID)
	assert.Equal(t, map[string]any{"title": "Hello"}, doc.Data[0].Attributes)
	assert.EqualValues(t, 3, doc.Meta.Count)
	assert.Equal(t, "/jsonapi/node/article?filter[title]=Hello&page[limit]=1", doc.Links.Self)
	assert.Equal(t, "/jsonapi/node/article?filter%5Btitle%5D=Hello&page%5Blimit%5D=1&page%5Boffset%5D=1", doc.Links.Next)
	assert.Empty(t, doc.Links.Prev)

	require.NotNil(t, finder.got)
	assert.Equal(t, []*filter.Condition{{Field: "title.value", Operator: filter.Equal, Value: "Hello"}}, finder.got.Filter.Conditions())
	assert.Equal(t, 1, finder.got.Page.Limit)
}

func TestCollection_NextLinkKeepsParameterOrder(t *testing.T) {
	finder := &fakeFinder{result: entity_repo.Result{Total: 10}}
	r := NewRouter(newTestConfig(finder))

	w := serve(t, r, "/jsonapi/node/article?sort[z][path]=title&sort[a][path]=created"+
		"&filter[b][condition][path]=status&filter[b][condition][value]=1"+
		"&filter[a][condition][path]=title&filter[a][condition][value]=x&page[limit]=1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := finder.got

	var doc dto.CollectionDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.NotEmpty(t, doc.Links.Next)

	w = serve(t, r, doc.Links.Next)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := finder.got

	paths := func(q *query.Query) []string {
		out := make([]string, len(q.Sort))
		for i, s := range q.Sort {
			out[i] = s.Path
		}
		return out
	}
	assert.Equal(t, []string{"title.value", "created.value"}, paths(second))
	assert.Equal(t, paths(first), paths(second))
	assert.Equal(t, first.Filter.String(), second.Filter.String())
	assert.Equal(t, 1, second.Page.Offset)
	assert.Equal(t, 1, second.Page.Limit)
}

func TestCollection_ListWithoutDatabase(t *testing.T) {
	r := NewRouter(newTestConfig(nil))

	w := serve(t, r, "/jsonapi/node/article")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeErrors(t, w).Code)
}

func TestCollection_Query(t *testing.T) {
	r := NewRouter(newTestConfig(nil))

	w := serve(t, r, "/jsonapi/node/article/query?filter[uid.name]=admin&sort=-created&fields[node--article]=title")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc struct {
		Query struct {
			Filter struct {
				Conjunction string `json:"conjunction"`
				Members     []struct {
					Field string `json:"field"`
				} `json:"members"`
			} `json:"filter"`
		} `json:"query"`
		SQL   string `json:"sql"`
		Args  []any  `json:"args"`
		Count string `json:"countSql"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "AND", doc.Query.Filter.Conjunction)
	require.Len(t, doc.Query.Filter.Members, 1)
	assert.Equal(t, "uid.entity.name.value", doc.Query.Filter.Members[0].Field)
	assert.Equal(t, "SELECT base.uuid AS id, base.title AS title FROM node_field_data AS base "+
		"LEFT JOIN users_field_data AS t1 ON t1.uid = base.uid "+
		"WHERE base.type = $1 AND (t1.name = $2) ORDER BY base.created DESC LIMIT 50", doc.SQL)
	assert.Equal(t, []any{"article", "admin"}, doc.Args)
	assert.Contains(t, doc.Count, "COUNT(*)")
}

func TestNewHandler_Gzip(t *testing.T) {
	h, err := NewHandler(newTestConfig(nil))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jsonapi/meta", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	var defs []metadata.EntityDef
	require.NoError(t, json.NewDecoder(zr).Decode(&defs))
	assert.NotEmpty(t, defs)
}
