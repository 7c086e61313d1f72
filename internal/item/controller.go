package item

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"RestQueryAPI/internal/db"
	"RestQueryAPI/internal/logger"
	"RestQueryAPI/internal/model"
	"RestQueryAPI/internal/query"

	"github.com/Masterminds/squirrel"
)

// Invalidator is cleared after every successful write.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Controller handles single-entity reads and writes.
type Controller struct {
	Store db.Store
	// ItemTransform is applied to every rendered entity, optional.
	ItemTransform func(m *model.Model, item map[string]any) map[string]any
	// Counts drops cached collection totals, optional.
	Counts Invalidator
}

func (c *Controller) written(ctx context.Context) {
	if c.Counts != nil {
		c.Counts.Invalidate(ctx)
	}
}

func (c *Controller) builder() squirrel.StatementBuilderType {
	return c.Store.Dialect().Builder()
}

func (c *Controller) key(m *model.Model, id string) (any, error) {
	v, ok := query.Coerce(m.PrimaryColumn(), id)
	if !ok {
		return nil, notFound(fmt.Errorf("bad %s %q", m.GetPrimaryKey(), id))
	}
	return v, nil
}

// Get renders {"<singular label>": {...}}.
func (c *Controller) Get(ctx context.Context, m *model.Model, id string) (map[string]any, error) {
	pk, err := c.key(m, id)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, m, pk)
}

func (c *Controller) get(ctx context.Context, m *model.Model, pk any) (map[string]any, error) {
	names := m.Columns.Names()
	sqlStr, args, err := c.builder().
		Select(names...).
		From(m.Table).
		Where(squirrel.Eq{m.GetPrimaryKey(): pk}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item query: %w", err)
	}
	row, err := c.Store.QueryRow(ctx, sqlStr, args...)
	if errors.Is(err, db.ErrNotFound) {
		return nil, notFound(err)
	}
	if err != nil {
		return nil, fmt.Errorf("item query: %w", err)
	}

	item := make(map[string]any, len(names))
	for i, name := range names {
		item[name] = row[i]
	}
	if c.ItemTransform != nil {
		item = c.ItemTransform(m, item)
	}
	return map[string]any{m.SingularLabel(): item}, nil
}

// Put applies the body as an edit and re-renders the entity.
func (c *Controller) Put(ctx context.Context, m *model.Model, id string, body []byte) (map[string]any, error) {
	pk, err := c.key(m, id)
	if err != nil {
		return nil, err
	}
	fields, err := ExtractBody(m, body)
	if err != nil {
		return nil, err
	}

	ub := c.builder().Update(m.Table).Where(squirrel.Eq{m.GetPrimaryKey(): pk})
	for _, f := range fields {
		ub = ub.Set(f.Column, f.Value)
	}
	sqlStr, args, err := ub.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	n, err := c.Store.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Warn("item_update_failed", map[string]any{
			"model": m.Name,
			"id":    id,
			"error": err.Error(),
		})
		return nil, writeError(err)
	}
	if n == 0 {
		return nil, notFound(nil)
	}
	c.written(ctx)
	return c.get(ctx, m, pk)
}

// Post creates an entity from the body and renders it.
func (c *Controller) Post(ctx context.Context, m *model.Model, body []byte) (map[string]any, error) {
	fields, err := ExtractBody(m, body)
	if err != nil {
		return nil, err
	}

	ib := c.builder().Insert(m.Table)
	cols := make([]string, len(fields))
	vals := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
		vals[i] = f.Value
	}
	sqlStr, args, err := ib.Columns(cols...).Values(vals...).
		Suffix("RETURNING " + m.GetPrimaryKey()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	row, err := c.Store.QueryRow(ctx, sqlStr, args...)
	if err != nil {
		logger.Warn("item_insert_failed", map[string]any{
			"model": m.Name,
			"error": err.Error(),
		})
		return nil, writeError(err)
	}
	c.written(ctx)
	return c.get(ctx, m, row[0])
}

// Delete removes the entity. Storage refusals, such as rows still
// referencing it, render as "cannot be deleted".
func (c *Controller) Delete(ctx context.Context, m *model.Model, id string) (map[string]any, error) {
	pk, err := c.key(m, id)
	if err != nil {
		return nil, err
	}
	sqlStr, args, err := c.builder().
		Delete(m.Table).
		Where(squirrel.Eq{m.GetPrimaryKey(): pk}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}
	n, err := c.Store.Exec(ctx, sqlStr, args...)
	if err != nil {
		logger.Warn("item_delete_failed", map[string]any{
			"model": m.Name,
			"id":    id,
			"error": err.Error(),
		})
		return nil, &Error{Status: http.StatusConflict, Message: MsgCannotDelete, Err: err}
	}
	if n == 0 {
		return nil, notFound(nil)
	}
	c.written(ctx)
	return map[string]any{}, nil
}
