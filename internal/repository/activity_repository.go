package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"boardgame-meetup/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *model.ListingActivity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("create listing activity failed: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByUserID(ctx context.Context, userID uint, limit int) ([]model.ListingActivity, error) {
	var activities []model.ListingActivity
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list listing activity failed: %w", err)
	}
	return activities, nil
}
