package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"twitterclone/internal/media"
	"twitterclone/internal/models"
	"twitterclone/internal/repository"
)

const (
	minProfileNameLen = 3
	maxProfileNameLen = 100
)

type UserService struct {
	userRepo  repository.UserRepository
	graph     *SocialGraph
	uploader  MediaUploader
	publisher ChangePublisher
}

// UpdateProfileInput carries the edited fields. Nil fields keep their value.
type UpdateProfileInput struct {
	ViewerID    string
	ProfileName *string
	Bio         *string
	Photo       *media.UploadInput
	Banner      *media.UploadInput
}

func NewUserService(userRepo repository.UserRepository, graph *SocialGraph, uploader MediaUploader, publisher ChangePublisher) *UserService {
	return &UserService{
		userRepo:  userRepo,
		graph:     graph,
		uploader:  uploader,
		publisher: publisherOrNop(publisher),
	}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, repository.ClampLimit(limit), offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// GetProfile returns the profile page payload. viewerID may be empty.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID string) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.graph.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.graph.IsFollowing(ctx, viewerID, userID)
	if err != nil {
		return nil, err
	}
	out := &models.UserProfile{
		User:           *user,
		FollowersCount: counts.Followers,
		FollowingCount: counts.Following,
		IsFollowing:    following,
	}
	out.PhotoURL = user.Photo()
	return out, nil
}

// UpdateProfile uploads the optional photo and banner first and then writes
// all fields at once. A failed upload leaves the profile untouched.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := requireViewer(in.ViewerID); err != nil {
		return nil, err
	}

	var name, bio string
	if in.ProfileName != nil {
		name = strings.TrimSpace(*in.ProfileName)
		n := utf8.RuneCountInString(name)
		if n < minProfileNameLen {
			return nil, models.NewValidationError(fmt.Sprintf("Profile name must be at least %d characters", minProfileNameLen))
		}
		if n > maxProfileNameLen {
			return nil, models.NewValidationError(fmt.Sprintf("Profile name too long (max %d characters)", maxProfileNameLen))
		}
	}
	if in.Bio != nil {
		bio = strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > models.MaxBioLength {
			return nil, models.NewValidationError(fmt.Sprintf("Bio too long (max %d characters)", models.MaxBioLength))
		}
	}

	user, err := s.userRepo.GetByID(ctx, in.ViewerID)
	if err != nil {
		return nil, err
	}

	photoURL, err := s.uploadProfileImage(ctx, in.Photo)
	if err != nil {
		return nil, err
	}
	bannerURL, err := s.uploadProfileImage(ctx, in.Banner)
	if err != nil {
		return nil, err
	}

	if in.ProfileName != nil {
		user.ProfileName = name
	}
	if in.Bio != nil {
		user.Bio = bio
	}
	if photoURL != "" {
		user.PhotoURL = photoURL
	}
	if bannerURL != "" {
		user.BannerURL = bannerURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.Change{
		Kind:     models.ChangeProfileUpdated,
		AuthorID: user.ID,
		ActorID:  in.ViewerID,
	})
	return user, nil
}

func (s *UserService) uploadProfileImage(ctx context.Context, in *media.UploadInput) (string, error) {
	if in == nil {
		return "", nil
	}
	if s.uploader == nil {
		return "", models.NewValidationError("Image uploads are not available")
	}
	upload := *in
	upload.Preset = media.PresetProfile
	return s.uploader.Upload(ctx, upload)
}
