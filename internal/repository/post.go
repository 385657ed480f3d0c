package repository

import (
	"context"
	"time"

	"twitterclone/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Feed limits.
const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 100
)

// ClampLimit normalizes a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error)
	List(ctx context.Context, limit, offset int, viewerID string) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int, viewerID string) ([]*models.Post, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	post.Likes = []string{}
	post.Comments = []*models.Comment{}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string, viewerID string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, mapErr(err, "Post", id)
	}
	if err := loadPostDetails(ctx, r.db, []*models.Post{&post}, viewerID); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns all posts, newest first, ties broken by id.
func (r *postRepository) List(ctx context.Context, limit, offset int, viewerID string) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(ClampLimit(limit)).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := loadPostDetails(ctx, r.db, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByAuthor returns posts (originals and retweets) sent by authorID, newest first.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID string, limit, offset int, viewerID string) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("sender_uid = ?", authorID).
		Order("created_at DESC, id DESC").
		Limit(ClampLimit(limit)).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := loadPostDetails(ctx, r.db, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetByIDs loads bare posts (no likes or comments) keyed by id.
func (r *postRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	out := make(map[string]*models.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

// Delete removes the post with its comments, comment likes and post likes.
func (r *postRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapErr(err, "Post", id)
}

// ToggleLike flips userID's membership in the post's likes with single-row statements.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error) {
	result := &models.LikeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Post{}, "id = ?", postID); err != nil {
			return err
		}

		del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			like := models.PostLike{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		return tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&result.LikeCount).Error
	})
	if err != nil {
		return nil, mapErr(err, "Post", postID)
	}
	return result, nil
}

// requireRow returns gorm.ErrRecordNotFound when no row of model matches.
func requireRow(tx *gorm.DB, model interface{}, query string, args ...interface{}) error {
	var n int64
	if err := tx.Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// loadPostDetails fills likes, like counts and comments (with their likes) in three queries.
func loadPostDetails(ctx context.Context, db *gorm.DB, posts []*models.Post, viewerID string) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	byID := make(map[string]*models.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Likes = []string{}
		p.Comments = []*models.Comment{}
	}

	var likes []models.PostLike
	if err := db.WithContext(ctx).Where("post_id IN ?", ids).Order("created_at ASC").Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, l := range likes {
		p := byID[l.PostID]
		p.Likes = append(p.Likes, l.UserID)
		if l.UserID == viewerID {
			p.Liked = true
		}
	}

	var comments []*models.Comment
	if err := db.WithContext(ctx).Where("post_id IN ?", ids).Order("created_at ASC, id ASC").Find(&comments).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := loadCommentLikes(ctx, db, comments); err != nil {
		return err
	}
	for _, c := range comments {
		p := byID[c.PostID]
		p.Comments = append(p.Comments, c)
	}

	for _, p := range posts {
		p.LikeCount = len(p.Likes)
	}
	return nil
}
