package service

import (
	"context"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/features"
	"chest-rewards-api/internal/inventory"
	"chest-rewards-api/internal/models"
	"chest-rewards-api/internal/tracing"
	"chest-rewards-api/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ConvertRequest selects pets to convert: by ID, or by Type and Count.
type ConvertRequest struct {
	ID    string
	Type  string
	Count int64
}

// Inventory lists the caller's pets, newest first.
func (s *Service) Inventory(ctx context.Context, id models.Identity) (items []models.InventoryItem, err error) {
	err = s.store.View(ctx, func(econ *models.Economy) error {
		user, ok := econ.User(id.Username)
		if !ok {
			return apperr.NotFound("user not found")
		}
		items = inventory.Items(user)
		return nil
	})
	return items, err
}

// Claim acknowledges a stored pet.
func (s *Service) Claim(ctx context.Context, id models.Identity, itemID string) (item models.InventoryItem, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.Claim", attribute.String("user", id.Username))
	defer func() { tracing.End(span, err) }()

	itemID, err = validation.ValidateItemID(itemID, "id")
	if err != nil {
		return models.InventoryItem{}, err
	}

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		var claimErr error
		item, claimErr = inventory.Claim(econ, id.Username, itemID, s.engine.Now())
		return claimErr
	})
	if err != nil {
		return models.InventoryItem{}, err
	}

	s.events.PublishPetClaimed(ctx, id.Username, item)
	return item, nil
}

// Convert converts one pet by id, or up to Count stored pets of Type.
func (s *Service) Convert(ctx context.Context, id models.Identity, req ConvertRequest) (res models.ConvertResult, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.Convert", attribute.String("user", id.Username))
	defer func() { tracing.End(span, err) }()

	if err = s.flags.Require(features.PetConversion); err != nil {
		return models.ConvertResult{}, err
	}

	var convert func(econ *models.Economy) (models.ConvertResult, error)
	switch {
	case validation.SanitizeString(req.ID) != "":
		itemID, verr := validation.ValidateItemID(req.ID, "id")
		if verr != nil {
			return models.ConvertResult{}, verr
		}
		convert = func(econ *models.Economy) (models.ConvertResult, error) {
			return inventory.ConvertOne(econ, id.Username, itemID, s.engine.Now())
		}
	default:
		category, verr := validation.ValidatePetCategory(req.Type)
		if verr != nil {
			return models.ConvertResult{}, verr
		}
		if req.Count <= 0 {
			return models.ConvertResult{}, apperr.InvalidInput("Missing/invalid count")
		}
		convert = func(econ *models.Economy) (models.ConvertResult, error) {
			return inventory.ConvertByType(econ, id.Username, category, req.Count, s.engine.Now())
		}
	}

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		var convErr error
		res, convErr = convert(econ)
		return convErr
	})
	if err != nil {
		return models.ConvertResult{}, err
	}

	span.SetAttributes(attribute.Int64("converted", res.Converted))
	s.events.PublishPetConverted(ctx, id.Username, res)
	return res, nil
}

// ConvertMany converts the listed pets, skipping any that cannot be
// converted.
func (s *Service) ConvertMany(ctx context.Context, id models.Identity, ids []string) (res models.ConvertResult, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.ConvertMany",
		attribute.String("user", id.Username),
		attribute.Int("ids", len(ids)),
	)
	defer func() { tracing.End(span, err) }()

	if err = s.flags.Require(features.PetConversion); err != nil {
		return models.ConvertResult{}, err
	}

	valid, err := validation.ValidateItemIDs(ids)
	if err != nil {
		return models.ConvertResult{}, err
	}
	if len(valid) == 0 {
		return models.ConvertResult{}, apperr.InvalidInput("No valid pets to convert")
	}

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		var convErr error
		res, convErr = inventory.ConvertMany(econ, id.Username, valid, s.engine.Now())
		return convErr
	})
	if err != nil {
		return models.ConvertResult{}, err
	}

	span.SetAttributes(attribute.Int64("converted", res.Converted))
	s.events.PublishPetConverted(ctx, id.Username, res)
	return res, nil
}
