// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package heroes is an example resource built on the crud repository.
package heroes

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/z5labs/keystone/crud"
	"github.com/z5labs/keystone/database"
	khttp "github.com/z5labs/keystone/http"
	"github.com/z5labs/keystone/http/httperr"
	"github.com/z5labs/keystone/http/httpjson"
	"github.com/z5labs/keystone/http/openapi"
	"github.com/z5labs/keystone/pkg/ptr"
	"github.com/z5labs/keystone/service"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// Hero
type Hero struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:256;uniqueIndex;not null" json:"name"`
	SecretName string `gorm:"size:256;not null" json:"secret_name"`
	Age        *int   `json:"age"`
	database.Timestamps
}

// HeroCreate is the body accepted when creating a [Hero].
type HeroCreate struct {
	Name       string `json:"name" validate:"required,max=256"`
	SecretName string `json:"secret_name" validate:"required,max=256"`
	Age        *int   `json:"age,omitempty" validate:"omitempty,min=0"`
}

// HeroUpdate is the body accepted when updating a [Hero]. Only the
// fields which are present are changed.
type HeroUpdate struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=256"`
	SecretName *string `json:"secret_name,omitempty" validate:"omitempty,max=256"`
	Age        *int    `json:"age,omitempty" validate:"omitempty,min=0"`
}

// Page selects a window of heroes ordered by id.
type Page struct {
	Skip  int `query:"skip" validate:"min=0"`
	Limit int `query:"limit" validate:"min=1,max=100"`
}

// ID selects a single hero.
type ID struct {
	ID uint `path:"id"`
}

type updateRequest struct {
	ID
	HeroUpdate
}

// Repository
type Repository = crud.Repository[Hero, HeroCreate, HeroUpdate]

type handlers struct {
	repo *Repository
}

// Mount migrates the hero table and registers the hero routes under the
// api prefix. It's a [service.MountFunc].
func Mount(ctx context.Context, r chi.Router, deps service.Deps) error {
	err := deps.DB.AutoMigrate(ctx, &Hero{})
	if err != nil {
		return err
	}

	repo, err := crud.New[Hero, HeroCreate, HeroUpdate](crud.Logger(deps.Log))
	if err != nil {
		return err
	}
	h := handlers{repo: repo}

	collection := deps.Prefix + "/heroes"
	item := collection + "/{id}"

	routes := []struct {
		op openapi.Operation
		f  httperr.HandlerFunc
	}{
		{
			op: openapi.Operation{
				Method:  http.MethodPost,
				Pattern: collection,
				Summary: "Create a hero",
				Request: HeroCreate{},
				Responses: []openapi.Response{
					{Status: http.StatusCreated, Body: Hero{}},
					{Status: http.StatusBadRequest, Body: errorBody{}},
				},
			},
			f: h.create,
		},
		{
			op: openapi.Operation{
				Method:  http.MethodGet,
				Pattern: collection,
				Summary: "List heroes",
				Request: Page{},
				Responses: []openapi.Response{
					{Status: http.StatusOK, Body: []Hero{}},
				},
			},
			f: h.list,
		},
		{
			op: openapi.Operation{
				Method:  http.MethodGet,
				Pattern: item,
				Summary: "Get a hero",
				Request: ID{},
				Responses: []openapi.Response{
					{Status: http.StatusOK, Body: Hero{}},
					{Status: http.StatusNotFound, Body: errorBody{}},
				},
			},
			f: h.get,
		},
		{
			op: openapi.Operation{
				Method:  http.MethodPatch,
				Pattern: item,
				Summary: "Update a hero",
				Request: updateRequest{},
				Responses: []openapi.Response{
					{Status: http.StatusOK, Body: Hero{}},
					{Status: http.StatusNotFound, Body: errorBody{}},
				},
			},
			f: h.update,
		},
		{
			op: openapi.Operation{
				Method:  http.MethodDelete,
				Pattern: item,
				Summary: "Delete a hero",
				Request: ID{},
				Responses: []openapi.Response{
					{Status: http.StatusOK, Body: Hero{}},
					{Status: http.StatusNotFound, Body: errorBody{}},
				},
			},
			f: h.remove,
		},
	}
	for _, rt := range routes {
		rt.op.Tags = []string{"heroes"}
		err = deps.Docs.Add(rt.op)
		if err != nil {
			return err
		}
		r.Method(rt.op.Method, rt.op.Pattern, khttp.RouteTag(rt.op.Pattern, deps.Errors.Handle(rt.f)))
	}
	return nil
}

type errorBody struct {
	Detail string `json:"detail"`
}

var errNotFound = httperr.New(http.StatusNotFound, "Hero not found")

func (h handlers) create(w http.ResponseWriter, r *http.Request) error {
	var in HeroCreate
	err := httperr.DecodeJSON(r, &in)
	if err != nil {
		return err
	}

	ctx := r.Context()
	s, err := database.SessionFrom(ctx)
	if err != nil {
		return err
	}

	taken, err := nameTaken(ctx, s, in.Name)
	if err != nil {
		return err
	}
	if taken {
		return httperr.New(http.StatusBadRequest, "Hero with this name already exists")
	}

	hero, err := h.repo.Create(ctx, s, in)
	if err != nil {
		return err
	}
	err = s.Commit(ctx)
	if err != nil {
		return err
	}
	httpjson.Write(w, http.StatusCreated, hero)
	return nil
}

func nameTaken(ctx context.Context, s *database.Session, name string) (bool, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return false, err
	}

	var existing Hero
	err = db.Where(&Hero{Name: name}).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (h handlers) list(w http.ResponseWriter, r *http.Request) error {
	page := Page{Limit: 100}
	err := httperr.DecodeQuery(r, &page)
	if err != nil {
		return err
	}

	ctx := r.Context()
	s, err := database.SessionFrom(ctx)
	if err != nil {
		return err
	}

	heroes, err := h.repo.GetMulti(ctx, s, page.Skip, page.Limit)
	if err != nil {
		return err
	}
	httpjson.Write(w, http.StatusOK, heroes)
	return nil
}

func heroID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil {
		return 0, httperr.ValidationError{Errors: []httperr.FieldError{{
			Loc:  []string{httperr.LocPath, "id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}}}
	}
	return uint(id), nil
}

func (h handlers) get(w http.ResponseWriter, r *http.Request) error {
	id, err := heroID(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	s, err := database.SessionFrom(ctx)
	if err != nil {
		return err
	}

	hero, found, err := h.repo.Get(ctx, s, id)
	if err != nil {
		return err
	}
	if !found {
		return errNotFound
	}
	httpjson.Write(w, http.StatusOK, hero)
	return nil
}

func (h handlers) update(w http.ResponseWriter, r *http.Request) error {
	id, err := heroID(r)
	if err != nil {
		return err
	}

	var in HeroUpdate
	err = httperr.DecodeJSON(r, &in)
	if err != nil {
		return err
	}

	ctx := r.Context()
	s, err := database.SessionFrom(ctx)
	if err != nil {
		return err
	}

	hero, found, err := h.repo.Get(ctx, s, id)
	if err != nil {
		return err
	}
	if !found {
		return errNotFound
	}
	if name := ptr.DerefOr(in.Name, hero.Name); name != hero.Name {
		taken, err := nameTaken(ctx, s, name)
		if err != nil {
			return err
		}
		if taken {
			return httperr.New(http.StatusBadRequest, "Hero with this name already exists")
		}
	}

	hero, err = h.repo.Update(ctx, s, hero, in)
	if err != nil {
		return err
	}
	err = s.Commit(ctx)
	if err != nil {
		return err
	}
	httpjson.Write(w, http.StatusOK, hero)
	return nil
}

func (h handlers) remove(w http.ResponseWriter, r *http.Request) error {
	id, err := heroID(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	s, err := database.SessionFrom(ctx)
	if err != nil {
		return err
	}

	hero, found, err := h.repo.Remove(ctx, s, id)
	if err != nil {
		return err
	}
	if !found {
		return errNotFound
	}
	err = s.Commit(ctx)
	if err != nil {
		return err
	}
	httpjson.Write(w, http.StatusOK, hero)
	return nil
}
