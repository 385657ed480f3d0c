package repository

import (
	"context"
	"time"

	"twitterclone/internal/models"

	"gorm.io/gorm"
)

// FollowRepository stores the social graph.
type FollowRepository interface {
	// Toggle adds or removes the edge follower -> followee in one transaction.
	Toggle(ctx context.Context, followerID, followeeID string) (*models.FollowResult, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
	ListFollowingIDs(ctx context.Context, userID string) ([]string, error)
	Counts(ctx context.Context, userID string) (*models.FollowCounts, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followeeID string) (*models.FollowResult, error) {
	result := &models.FollowResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.User{}, "id = ?", followeeID); err != nil {
			return err
		}

		del := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			edge := models.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now().UTC()}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
			result.Following = true
		}

		return tx.Model(&models.Follow{}).Where("followee_id = ?", followeeID).Count(&result.Followers).Error
	})
	if err != nil {
		return nil, mapErr(err, "User", followeeID)
	}
	return result, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Order("created_at ASC").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) ListFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("created_at ASC").
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) Counts(ctx context.Context, userID string) (*models.FollowCounts, error) {
	counts := &models.FollowCounts{}
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&counts.Followers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&counts.Following).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return counts, nil
}
