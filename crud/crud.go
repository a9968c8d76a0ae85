// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package crud provides a generic repository for entities persisted
// through a [database.Session].
//
// A [Repository] never commits. Creates, updates and removals are staged
// in the caller's session and become visible to others only once the
// caller commits it.
package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/z5labs/keystone/database"
	"github.com/z5labs/keystone/pkg/noop"
	"github.com/z5labs/keystone/pkg/slogfield"

	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Option configures a [Repository].
type Option func(*options)

type options struct {
	log *slog.Logger
}

// Logger sets the logger used to report update fields which were skipped.
func Logger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Repository implements get, list, create, update and remove for the
// entity type E. C is the input accepted by Create and U the input
// accepted by Update.
type Repository[E any, C any, U any] struct {
	log    *slog.Logger
	schema *schema.Schema
}

// New parses the schema of E and returns a [Repository] for it.
func New[E any, C any, U any](opts ...Option) (*Repository[E, C, U], error) {
	o := &options{
		log: slog.New(noop.LogHandler{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	sch, err := schema.Parse(new(E), &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		return nil, err
	}
	r := &Repository[E, C, U]{
		log:    o.log,
		schema: sch,
	}
	return r, nil
}

// Get returns the entity whose primary key is id. The second result is
// false if there is none.
func (r *Repository[E, C, U]) Get(ctx context.Context, s *database.Session, id any) (*E, bool, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return nil, false, err
	}

	var e E
	err = db.Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

// GetMulti returns at most limit entities ordered by primary key, after
// skipping the first skip of them. Negative values are treated as 0.
func (r *Repository[E, C, U]) GetMulti(ctx context.Context, s *database.Session, skip, limit int) ([]E, error) {
	skip = max(skip, 0)
	limit = max(limit, 0)
	if limit == 0 {
		return []E{}, nil
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}

	es := []E{}
	err = db.
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).
		Offset(skip).
		Limit(limit).
		Find(&es).
		Error
	if err != nil {
		return nil, err
	}
	return es, nil
}

// GetAll returns every entity ordered by primary key.
func (r *Repository[E, C, U]) GetAll(ctx context.Context, s *database.Session) ([]E, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return nil, err
	}

	es := []E{}
	err = db.Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).Find(&es).Error
	if err != nil {
		return nil, err
	}
	return es, nil
}

// InputMappingError is returned by Create when the input can't be
// mapped onto a new entity.
type InputMappingError struct {
	Entity string
	Cause  error
}

// Error implements the [error] interface.
func (e InputMappingError) Error() string {
	return fmt.Sprintf("failed to map input onto %s: %s", e.Entity, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InputMappingError) Unwrap() error {
	return e.Cause
}

// Create maps in onto a new entity, matching fields by their json name,
// and stages it. Database assigned fields, like an auto incremented
// primary key, stay unset until the session is flushed or committed.
func (r *Repository[E, C, U]) Create(ctx context.Context, s *database.Session, in C) (*E, error) {
	e := new(E)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  e,
	})
	if err != nil {
		return nil, err
	}
	err = dec.Decode(in)
	if err != nil {
		return nil, InputMappingError{Entity: r.schema.Name, Cause: err}
	}

	s.Add(e)
	return e, nil
}

// Update applies the fields present in in to existing and stages it.
// A field is present unless it's a nil pointer. See [Repository.UpdateFields].
func (r *Repository[E, C, U]) Update(ctx context.Context, s *database.Session, existing *E, in U) (*E, error) {
	return r.UpdateFields(ctx, s, existing, presentFields(in))
}

// UpdateFields sets the mutable attributes of existing named by the keys
// of fields and stages it. Keys match the column name or the Go field
// name. Keys which don't name a mutable attribute, and values which
// can't be assigned to theirs, are skipped.
func (r *Repository[E, C, U]) UpdateFields(ctx context.Context, s *database.Session, existing *E, fields map[string]any) (*E, error) {
	rv := reflect.ValueOf(existing).Elem()
	for _, field := range r.schema.Fields {
		if !mutable(field) {
			continue
		}
		v, ok := lookup(fields, field)
		if !ok {
			continue
		}

		err := assign(field.ReflectValueOf(ctx, rv), v)
		if err != nil {
			r.log.DebugContext(
				ctx,
				"skipped update field",
				slog.String("entity", r.schema.Name),
				slog.String("field", field.DBName),
				slogfield.Error(err),
			)
		}
	}

	s.Add(existing)
	return existing, nil
}

// Remove stages the deletion of the entity whose primary key is id and
// returns it. Nothing is staged if there is none.
func (r *Repository[E, C, U]) Remove(ctx context.Context, s *database.Session, id any) (*E, bool, error) {
	e, found, err := r.Get(ctx, s, id)
	if err != nil || !found {
		return nil, false, err
	}
	s.Delete(e)
	return e, true, nil
}

func mutable(f *schema.Field) bool {
	return f.DBName != "" && f.Updatable && !f.PrimaryKey
}

func lookup(fields map[string]any, f *schema.Field) (any, bool) {
	if v, ok := fields[f.DBName]; ok {
		return v, true
	}
	v, ok := fields[f.Name]
	return v, ok
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	// Only ever set dst once decoding succeeded.
	tmp := reflect.New(dst.Type())
	err := mapstructure.Decode(v, tmp.Interface())
	if err != nil {
		return err
	}
	dst.Set(tmp.Elem())
	return nil
}

// presentFields flattens an update input into a map keyed by json name,
// leaving out nil pointers.
func presentFields(in any) map[string]any {
	if m, ok := in.(map[string]any); ok {
		return m
	}

	rv := reflect.Indirect(reflect.ValueOf(in))
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := make(map[string]any, rv.NumField())
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}

		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		fields[name] = fv.Interface()
	}
	return fields
}
