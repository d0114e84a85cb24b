package entity_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jsonapiq/internal/core/apperror"
	"jsonapiq/internal/domain/query"
	"jsonapiq/internal/infrastructure/storage/postgres"
	"jsonapiq/internal/metadata"
	"jsonapiq/pkg/logger"
)

var tracer = otel.Tracer("jsonapiq/entity_repo")

// Result is one page of rows and the total number of matches.
type Result struct {
	Rows  []map[string]any
	Total int64
}

// Repo executes compiled queries. Count and select run in one snapshot
// transaction.
type Repo struct {
	compiler *Compiler
	txm      *postgres.TxManager
}

// NewRepo creates a repository over registry and txm.
func NewRepo(registry *metadata.Registry, txm *postgres.TxManager) *Repo {
	return &Repo{compiler: NewCompiler(registry), txm: txm}
}

// Compiler returns the compiler used by Find.
func (r *Repo) Compiler() *Compiler {
	return r.compiler
}

// Find runs q and returns the matching page.
func (r *Repo) Find(ctx context.Context, q *query.Query) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "entity_repo.find",
		trace.WithAttributes(attribute.String("resource", q.Resource.Name())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	compiled, err := r.compiler.Compile(q)
	if err != nil {
		return Result{}, err
	}
	countSQL, countArgs, err := compiled.Count.ToSql()
	if err != nil {
		return Result{}, fmt.Errorf("build count query: %w", err)
	}
	selectSQL, selectArgs, err := compiled.SQL()
	if err != nil {
		return Result{}, fmt.Errorf("build query: %w", err)
	}
	logger.Debug(ctx, "executing entity query", "sql", selectSQL, "args", len(selectArgs))

	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		querier := r.txm.GetQuerier(ctx)
		if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&res.Total); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		if err := pgxscan.Select(ctx, querier, &res.Rows, selectSQL, selectArgs...); err != nil {
			return fmt.Errorf("list: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, apperror.NewInternal(err).WithDetail("resource", q.Resource.Name())
	}

	if res.Rows == nil {
		res.Rows = []map[string]any{}
	}
	span.SetAttributes(attribute.Int64("result.total", res.Total), attribute.Int("result.rows", len(res.Rows)))
	return res, nil
}
