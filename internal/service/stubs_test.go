package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"twitterclone/internal/media"
	"twitterclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, string, string) (*models.Post, error)
	listFn         func(context.Context, int, int, string) ([]*models.Post, error)
	listByAuthorFn func(context.Context, string, int, int, string) ([]*models.Post, error)
	getByIDsFn     func(context.Context, []string) (map[string]*models.Post, error)
	deleteFn       func(context.Context, string) error
	toggleLikeFn   func(context.Context, string, string) (*models.LikeResult, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID string) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, viewerID string) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, viewerID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID string, limit, offset int, viewerID string) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset, viewerID)
}
func (s *postRepoStub) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error) {
	return s.toggleLikeFn(ctx, postID, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ string) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:    func(_ context.Context, _, _ int, _ string) ([]*models.Post, error) { return nil, nil },
		listByAuthorFn: func(_ context.Context, _ string, _, _ int, _ string) ([]*models.Post, error) {
			return nil, nil
		},
		getByIDsFn:   func(_ context.Context, _ []string) (map[string]*models.Post, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _ string) error { return nil },
		toggleLikeFn: func(_ context.Context, _, _ string) (*models.LikeResult, error) { return &models.LikeResult{}, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, string, string) (*models.Comment, error)
	listByPostFn   func(context.Context, string) ([]*models.Comment, error)
	listByAuthorFn func(context.Context, string, int) ([]*models.Comment, error)
	deleteFn       func(context.Context, string, string) error
	toggleLikeFn   func(context.Context, string, string, string) (*models.LikeResult, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	return s.getByIDFn(ctx, postID, commentID)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Comment, error) {
	return s.listByAuthorFn(ctx, authorID, limit)
}
func (s *commentRepoStub) Delete(ctx context.Context, postID, commentID string) error {
	return s.deleteFn(ctx, postID, commentID)
}
func (s *commentRepoStub) ToggleLike(ctx context.Context, postID, commentID, userID string) (*models.LikeResult, error) {
	return s.toggleLikeFn(ctx, postID, commentID, userID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, postID, commentID string) (*models.Comment, error) {
			return &models.Comment{ID: commentID, PostID: postID}, nil
		},
		listByPostFn:   func(_ context.Context, _ string) ([]*models.Comment, error) { return nil, nil },
		listByAuthorFn: func(_ context.Context, _ string, _ int) ([]*models.Comment, error) { return nil, nil },
		deleteFn:       func(_ context.Context, _, _ string) error { return nil },
		toggleLikeFn: func(_ context.Context, _, _, _ string) (*models.LikeResult, error) {
			return &models.LikeResult{}, nil
		},
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	listFn          func(context.Context, int, int) ([]models.User, error)
	countFn         func(context.Context) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Username: "user_" + id, ProfileName: "User " + id}, nil
		},
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
		countFn:         func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	toggleFn      func(context.Context, string, string) (*models.FollowResult, error)
	isFollowingFn func(context.Context, string, string) (bool, error)
	followersFn   func(context.Context, string) ([]string, error)
	followingFn   func(context.Context, string) ([]string, error)
	countsFn      func(context.Context, string) (*models.FollowCounts, error)
}

func (s *followRepoStub) Toggle(ctx context.Context, followerID, followeeID string) (*models.FollowResult, error) {
	return s.toggleFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.followersFn(ctx, userID)
}
func (s *followRepoStub) ListFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return s.followingFn(ctx, userID)
}
func (s *followRepoStub) Counts(ctx context.Context, userID string) (*models.FollowCounts, error) {
	return s.countsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		toggleFn: func(_ context.Context, _, _ string) (*models.FollowResult, error) {
			return &models.FollowResult{}, nil
		},
		isFollowingFn: func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		followersFn:   func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		followingFn:   func(_ context.Context, _ string) ([]string, error) { return nil, nil },
		countsFn: func(_ context.Context, _ string) (*models.FollowCounts, error) {
			return &models.FollowCounts{}, nil
		},
	}
}

// uploaderStub records uploads.
type uploaderStub struct {
	mu       sync.Mutex
	inputs   []media.UploadInput
	uploadFn func(context.Context, media.UploadInput) (string, error)
}

func (u *uploaderStub) Upload(ctx context.Context, in media.UploadInput) (string, error) {
	u.mu.Lock()
	u.inputs = append(u.inputs, in)
	u.mu.Unlock()
	if u.uploadFn != nil {
		return u.uploadFn(ctx, in)
	}
	return "https://media.test/" + in.Filename, nil
}

// recordingPublisher captures published changes.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []models.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c models.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

func (p *recordingPublisher) all() []models.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Change(nil), p.changes...)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthorized)
}

func assertUnauthenticatedError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthenticated)
}
