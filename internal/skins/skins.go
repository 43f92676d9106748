// Package skins manages the marble skins players can pick.
package skins

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/store"
)

// Catalog reads and writes skins.
type Catalog struct {
	st *store.Store
}

// New constructs a skin Catalog.
func New(st *store.Store) *Catalog {
	return &Catalog{st: st}
}

// Add creates an active skin.
func (c *Catalog) Add(ctx context.Context, name, imageRef string) (*models.Skin, error) {
	name = strings.TrimSpace(name)
	imageRef = strings.TrimSpace(imageRef)
	if name == "" || imageRef == "" {
		return nil, apperrors.InvalidArgument("skin name and image are required")
	}
	skin := &models.Skin{Name: name, ImageRef: imageRef, IsActive: true}
	if errCreate := c.st.DB(ctx).Create(skin).Error; errCreate != nil {
		return nil, fmt.Errorf("skins: add: %w", errCreate)
	}
	log.WithFields(log.Fields{"skin_id": skin.ID, "name": name}).Info("skins: skin added")
	return skin, nil
}

// List returns skins newest first. Inactive skins are included only when all is set.
func (c *Catalog) List(ctx context.Context, all bool) ([]models.Skin, error) {
	q := c.st.DB(ctx).Order("id DESC")
	if !all {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Skin
	if errFind := q.Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("skins: list: %w", errFind)
	}
	return rows, nil
}

// SetActive toggles a skin.
func (c *Catalog) SetActive(ctx context.Context, id uint64, active bool) error {
	res := c.st.DB(ctx).Model(&models.Skin{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("skins: set active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("skin not found")
	}
	return nil
}

// Delete removes a skin. Accounts keep whatever reference they selected.
func (c *Catalog) Delete(ctx context.Context, id uint64) error {
	res := c.st.DB(ctx).Where("id = ?", id).Delete(&models.Skin{})
	if res.Error != nil {
		return fmt.Errorf("skins: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("skin not found")
	}
	return nil
}
