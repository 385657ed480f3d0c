package repository

import (
	"context"
	"time"

	"twitterclone/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, postID, commentID string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Comment, error)
	Delete(ctx context.Context, postID, commentID string) error
	ToggleLike(ctx context.Context, postID, commentID, userID string) (*models.LikeResult, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create appends a comment to an existing post.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Post{}, "id = ?", comment.PostID); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return mapErr(err, "Post", comment.PostID)
	}
	comment.Likes = []string{}
	return nil
}

// GetByID loads a comment that belongs to postID.
func (r *commentRepository) GetByID(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error; err != nil {
		return nil, mapErr(err, "Comment", commentID)
	}
	if err := loadCommentLikes(ctx, r.db, []*models.Comment{&comment}); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := loadCommentLikes(ctx, r.db, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListByAuthor serves the replies feed from the (sender_uid, created_at) index.
func (r *commentRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("sender_uid = ?", authorID).
		Order("created_at DESC, id DESC").
		Limit(ClampLimit(limit)).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := loadCommentLikes(ctx, r.db, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Delete removes exactly one comment and its likes.
func (r *commentRepository) Delete(ctx context.Context, postID, commentID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", commentID).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND post_id = ?", commentID, postID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapErr(err, "Comment", commentID)
}

func (r *commentRepository) ToggleLike(ctx context.Context, postID, commentID, userID string) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Comment{}, "id = ? AND post_id = ?", commentID, postID); err != nil {
			return err
		}

		del := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			like := models.CommentLike{CommentID: commentID, UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		return tx.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&result.LikeCount).Error
	})
	if err != nil {
		return nil, mapErr(err, "Comment", commentID)
	}
	return result, nil
}

func loadCommentLikes(ctx context.Context, db *gorm.DB, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]string, len(comments))
	byID := make(map[string]*models.Comment, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		byID[c.ID] = c
		c.Likes = []string{}
	}

	var likes []models.CommentLike
	if err := db.WithContext(ctx).Where("comment_id IN ?", ids).Order("created_at ASC").Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, l := range likes {
		byID[l.CommentID].Likes = append(byID[l.CommentID].Likes, l.UserID)
	}
	for _, c := range comments {
		c.LikeCount = len(c.Likes)
	}
	return nil
}
