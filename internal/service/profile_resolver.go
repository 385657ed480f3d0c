package service

import (
	"context"

	"twitterclone/internal/models"
	"twitterclone/internal/repository"
)

// ProfileResolver turns user ids into display identities. A missing user is
// rendered as its raw id with the placeholder avatar.
type ProfileResolver struct {
	users repository.UserRepository
}

func NewProfileResolver(users repository.UserRepository) *ProfileResolver {
	return &ProfileResolver{users: users}
}

// Resolve returns the profile for userID. Only store failures are errors.
func (r *ProfileResolver) Resolve(ctx context.Context, userID string) (models.Profile, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.Profile{ID: userID, DisplayName: userID, AvatarURL: models.DefaultPhotoURL}, nil
		}
		return models.Profile{}, err
	}
	return profileOf(user), nil
}

// ResolveMany resolves ids in order, one lookup per member.
func (r *ProfileResolver) ResolveMany(ctx context.Context, ids []string) ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := r.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func profileOf(u *models.User) models.Profile {
	name := u.ProfileName
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = u.ID
	}
	return models.Profile{ID: u.ID, DisplayName: name, AvatarURL: u.Photo()}
}
