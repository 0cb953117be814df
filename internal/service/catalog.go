package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
)

// PassTypeStore is the persistence the Catalog needs.
type PassTypeStore interface {
	Create(ctx context.Context, p *model.PassType) error
	GetByID(ctx context.Context, id string) (*model.PassType, error)
	List(ctx context.Context, activeOnly bool) ([]model.PassType, error)
	Update(ctx context.Context, p *model.PassType) error
	IsReferenced(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Catalog manages pass categories.
type Catalog struct {
	store     PassTypeStore
	eventName string
}

func NewCatalog(store PassTypeStore, eventName string) *Catalog {
	return &Catalog{store: store, eventName: eventName}
}

// PassTypeInput is the writable part of a pass type.  Nil pointers keep the
// current value on update and take the default on create.
type PassTypeInput struct {
	Name          string  `json:"name"`
	Price         *int64  `json:"price" validate:"omitempty,min=0"`
	MaxPeople     *int    `json:"max_people" validate:"omitempty,min=1"`
	NoOfPeople    *int    `json:"no_of_people" validate:"omitempty,min=0"`
	NoOfPasses    *int    `json:"no_of_passes" validate:"omitempty,min=0"`
	ValidForEvent *string `json:"valid_for_event"`
	Description   *string `json:"description"`
	IsActive      *bool   `json:"is_active"`
}

// List returns the categories, cheapest first.
func (c *Catalog) List(ctx context.Context, activeOnly bool) ([]model.PassType, error) {
	return c.store.List(ctx, activeOnly)
}

// Get returns a NotFoundError for unknown ids.
func (c *Catalog) Get(ctx context.Context, id string) (*model.PassType, error) {
	p, err := c.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFoundError{Resource: "pass type", Err: err}
	}
	return p, err
}

func (c *Catalog) Create(ctx context.Context, actor Actor, in PassTypeInput) (*model.PassType, error) {
	if err := Authorize(actor.Role, CapManageCatalog); err != nil {
		return nil, err
	}
	name, ok := model.CanonicalPassName(in.Name)
	if !ok {
		return nil, domain.ValidationError{Field: "name", Msg: "must be one of Teens, Couple, Family"}
	}
	if in.Price == nil {
		return nil, domain.ValidationError{Field: "price", Msg: "is required"}
	}
	if in.MaxPeople == nil {
		return nil, domain.ValidationError{Field: "max_people", Msg: "is required"}
	}
	p := &model.PassType{
		Name:          name,
		ValidForEvent: c.eventName,
		IsActive:      true,
	}
	apply(p, in)
	if err := checkPassType(p); err != nil {
		return nil, err
	}
	if err := c.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update edits a category.  The name cannot change once bookings point at
// the category; price changes never touch existing bookings because their
// amounts were fixed at creation.
func (c *Catalog) Update(ctx context.Context, actor Actor, id string, in PassTypeInput) (*model.PassType, error) {
	if err := Authorize(actor.Role, CapManageCatalog); err != nil {
		return nil, err
	}
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) != "" {
		name, ok := model.CanonicalPassName(in.Name)
		if !ok {
			return nil, domain.ValidationError{Field: "name", Msg: "must be one of Teens, Couple, Family"}
		}
		if name != p.Name {
			used, err := c.store.IsReferenced(ctx, id)
			if err != nil {
				return nil, err
			}
			if used {
				return nil, domain.ConflictError{Resource: "pass type", Msg: "cannot rename a pass type that has bookings"}
			}
			p.Name = name
		}
	}
	apply(p, in)
	if err := checkPassType(p); err != nil {
		return nil, err
	}
	if err := c.store.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "pass type", Err: err}
		}
		return nil, err
	}
	return p, nil
}

// Delete is refused while any booking references the category.
func (c *Catalog) Delete(ctx context.Context, actor Actor, id string) error {
	if err := Authorize(actor.Role, CapManageCatalog); err != nil {
		return err
	}
	err := c.store.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFoundError{Resource: "pass type", Err: err}
	case errors.Is(err, repository.ErrInUse):
		return domain.ConflictError{Resource: "pass type", Msg: "bookings still reference this pass type", Err: err}
	}
	return err
}

func apply(p *model.PassType, in PassTypeInput) {
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.MaxPeople != nil {
		p.MaxPeople = *in.MaxPeople
	}
	if in.NoOfPeople != nil {
		p.NoOfPeople = *in.NoOfPeople
	}
	if in.NoOfPasses != nil {
		p.NoOfPasses = *in.NoOfPasses
	}
	if in.ValidForEvent != nil && strings.TrimSpace(*in.ValidForEvent) != "" {
		p.ValidForEvent = strings.TrimSpace(*in.ValidForEvent)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func checkPassType(p *model.PassType) error {
	switch {
	case p.Price < 0:
		return domain.ValidationError{Field: "price", Msg: "must not be negative"}
	case p.MaxPeople < 1:
		return domain.ValidationError{Field: "max_people", Msg: "must be at least 1"}
	case p.NoOfPeople < 0 || p.NoOfPasses < 0:
		return domain.ValidationError{Msg: "counters must not be negative"}
	}
	return nil
}
