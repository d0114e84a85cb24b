package handlers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/core/params"
	"jsonapiq/internal/domain/paging"
	"jsonapiq/internal/domain/query"
	"jsonapiq/internal/infrastructure/http/v1/dto"
	"jsonapiq/internal/infrastructure/storage/postgres/entity_repo"
)

// Finder executes parsed queries. *entity_repo.Repo satisfies it.
type Finder interface {
	Find(ctx context.Context, q *query.Query) (entity_repo.Result, error)
}

// CollectionHandler serves JSON:API collection routes.
type CollectionHandler struct {
	*BaseHandler
	parser   *query.Parser
	compiler *entity_repo.Compiler
	finder   Finder
}

// CollectionHandlerConfig configures the collection handler. Finder may be
// nil; List then answers 503 while Query keeps working.
type CollectionHandlerConfig struct {
	Parser   *query.Parser
	Compiler *entity_repo.Compiler
	Finder   Finder
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(base *BaseHandler, cfg CollectionHandlerConfig) *CollectionHandler {
	return &CollectionHandler{
		BaseHandler: base,
		parser:      cfg.Parser,
		compiler:    cfg.Compiler,
		finder:      cfg.Finder,
	}
}

func (h *CollectionHandler) parse(c *gin.Context) (*query.Query, bool) {
	res, ok := h.Resource(c)
	if !ok {
		return nil, false
	}
	q, err := h.parser.ParseRaw(c.Request.Context(), res, c.Request.URL.RawQuery)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return q, true
}

// List handles GET /jsonapi/:entity_type/:bundle.
func (h *CollectionHandler) List(c *gin.Context) {
	q, ok := h.parse(c)
	if !ok {
		return
	}
	if h.finder == nil {
		h.Error(c, apperror.NewUnavailable("no database configured"))
		return
	}

	result, err := h.finder.Find(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}

	typeName := q.Resource.Name()
	data := make([]dto.ResourceObject, 0, len(result.Rows))
	for _, row := range result.Rows {
		data = append(data, dto.NewResourceObject(typeName, entity_repo.IDColumn, row))
	}

	h.OK(c, dto.CollectionDocument{
		Data:  data,
		Meta:  dto.CollectionMeta{Count: result.Total},
		Links: pageLinks(c.Request.URL, q.Page, result.Total),
	})
}

// Query handles GET /jsonapi/:entity_type/:bundle/query. It returns the
// parsed query and the SQL it compiles to without touching the database.
func (h *CollectionHandler) Query(c *gin.Context) {
	q, ok := h.parse(c)
	if !ok {
		return
	}

	compiled, err := h.compiler.Compile(q)
	if err != nil {
		h.Error(c, err)
		return
	}
	sql, args, err := compiled.SQL()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	countSQL, _, err := compiled.Count.ToSql()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	if args == nil {
		args = []any{}
	}

	h.OK(c, dto.QueryDocument{Query: q, SQL: sql, Args: args, Count: countSQL})
}

// pageLinks builds self, next and prev links from the request URL.
func pageLinks(u *url.URL, page paging.Spec, total int64) dto.Links {
	links := dto.Links{Self: u.RequestURI()}

	if next, ok := page.Next(); ok && int64(next.Offset) < total {
		links.Next = withPage(u, next)
	}
	if prev, ok := page.Prev(); ok {
		links.Prev = withPage(u, prev)
	}
	return links
}

// withPage replaces the page window of u, keeping the order of every other
// parameter. The query was already parsed once, so a decode error cannot
// happen here; the link falls back to self if it does.
func withPage(u *url.URL, page paging.Spec) string {
	m, err := params.Parse(u.RawQuery)
	if err != nil {
		return u.RequestURI()
	}
	pm := params.NewMap()
	if v, ok := m.Get(apperror.ParamPage); ok && v.IsMap() {
		pm = v.Map().Clone()
	}
	pm.SetString(paging.KeyOffset, strconv.Itoa(page.Offset))
	pm.SetString(paging.KeyLimit, strconv.Itoa(page.Limit))
	m.Set(apperror.ParamPage, params.Nested(pm))

	out := *u
	out.RawQuery = m.Encode()
	return out.RequestURI()
}
