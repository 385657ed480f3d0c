package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"twitterclone/internal/media"
	"twitterclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUserService(users *userRepoStub, follows *followRepoStub, up MediaUploader, pub ChangePublisher) *UserService {
	graph := NewSocialGraph(follows, NewProfileResolver(users), pub)
	return NewUserService(users, graph, up, pub)
}

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	t.Parallel()

	svc := newUserService(noopUserRepo(), noopFollowRepo(), &uploaderStub{}, nil)
	ctx := context.Background()

	t.Run("profile name too short", func(t *testing.T) {
		t.Parallel()
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ViewerID: "u1", ProfileName: strPtr("ab")})
		assertValidationError(t, err)
	})

	t.Run("bio too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ViewerID: "u1", Bio: strPtr(strings.Repeat("x", 161))})
		assertValidationError(t, err)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{Bio: strPtr("hi")})
		assertUnauthenticatedError(t, err)
	})
}

func TestUserService_UpdateProfile_UploadsThenWritesOnce(t *testing.T) {
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Username: "alice", ProfileName: "Alice", Bio: "old"}, nil
	}
	var writes []models.User
	users.updateFn = func(_ context.Context, u *models.User) error {
		writes = append(writes, *u)
		return nil
	}
	up := &uploaderStub{}
	pub := &recordingPublisher{}
	svc := newUserService(users, noopFollowRepo(), up, pub)

	user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		ViewerID:    "u1",
		ProfileName: strPtr(" Alice Smith "),
		Photo:       &media.UploadInput{Filename: "me.png", Content: []byte("p")},
		Banner:      &media.UploadInput{Filename: "banner.png", Content: []byte("b")},
	})
	require.NoError(t, err)
	require.Len(t, writes, 1)
	assert.Equal(t, "Alice Smith", user.ProfileName)
	assert.Equal(t, "old", user.Bio)
	assert.Equal(t, "https://media.test/me.png", user.PhotoURL)
	assert.Equal(t, "https://media.test/banner.png", user.BannerURL)

	require.Len(t, up.inputs, 2)
	for _, in := range up.inputs {
		assert.Equal(t, media.PresetProfile, in.Preset)
	}
	require.Len(t, pub.all(), 1)
	assert.Equal(t, models.ChangeProfileUpdated, pub.all()[0].Kind)
}

func TestUserService_UpdateProfile_UploadFailureWritesNothing(t *testing.T) {
	users := noopUserRepo()
	users.updateFn = func(_ context.Context, _ *models.User) error {
		t.Fatal("profile must not be written")
		return nil
	}
	up := &uploaderStub{uploadFn: func(context.Context, media.UploadInput) (string, error) {
		return "", models.NewUploadFailedError(errors.New("timeout"))
	}}
	svc := newUserService(users, noopFollowRepo(), up, nil)

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		ViewerID: "u1",
		Bio:      strPtr("new bio"),
		Photo:    &media.UploadInput{Content: []byte("p")},
	})
	assertCode(t, err, models.CodeUploadFailed)
}

func TestUserService_GetProfile(t *testing.T) {
	follows := noopFollowRepo()
	follows.countsFn = func(_ context.Context, _ string) (*models.FollowCounts, error) {
		return &models.FollowCounts{Followers: 3, Following: 2}, nil
	}
	follows.isFollowingFn = func(_ context.Context, a, b string) (bool, error) {
		return a == "viewer" && b == "u1", nil
	}
	svc := newUserService(noopUserRepo(), follows, nil, nil)

	p, err := svc.GetProfile(context.Background(), "u1", "viewer")
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.FollowersCount)
	assert.EqualValues(t, 2, p.FollowingCount)
	assert.True(t, p.IsFollowing)
	assert.Equal(t, models.DefaultPhotoURL, p.PhotoURL)

	anon, err := svc.GetProfile(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)
}

func TestUserService_GetByUsername(t *testing.T) {
	users := noopUserRepo()
	users.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		if username == "alice" {
			return &models.User{ID: "1", Username: "alice"}, nil
		}
		return nil, nil
	}
	svc := newUserService(users, noopFollowRepo(), nil, nil)

	u, err := svc.GetByUsername(context.Background(), " Alice ")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)

	_, err = svc.GetByUsername(context.Background(), "nobody")
	assertCode(t, err, models.CodeNotFound)
}
