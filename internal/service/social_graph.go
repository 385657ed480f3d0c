package service

import (
	"context"

	"twitterclone/internal/models"
	"twitterclone/internal/repository"
)

// SocialGraph manages follow edges.
type SocialGraph struct {
	follows   repository.FollowRepository
	profiles  *ProfileResolver
	publisher ChangePublisher
}

func NewSocialGraph(follows repository.FollowRepository, profiles *ProfileResolver, publisher ChangePublisher) *SocialGraph {
	return &SocialGraph{follows: follows, profiles: profiles, publisher: publisherOrNop(publisher)}
}

// ToggleFollow follows target if the viewer does not follow it yet, otherwise unfollows.
func (g *SocialGraph) ToggleFollow(ctx context.Context, viewerID, targetID string) (*models.FollowResult, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	if viewerID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	res, err := g.follows.Toggle(ctx, viewerID, targetID)
	if err != nil {
		return nil, err
	}
	g.publisher.Publish(ctx, models.Change{
		Kind:     models.ChangeFollowToggled,
		AuthorID: targetID,
		ActorID:  viewerID,
		Active:   res.Following,
	})
	return res, nil
}

func (g *SocialGraph) ListFollowers(ctx context.Context, userID string) ([]models.Profile, error) {
	ids, err := g.follows.ListFollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return g.profiles.ResolveMany(ctx, ids)
}

func (g *SocialGraph) ListFollowing(ctx context.Context, userID string) ([]models.Profile, error) {
	ids, err := g.follows.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return g.profiles.ResolveMany(ctx, ids)
}

func (g *SocialGraph) Counts(ctx context.Context, userID string) (*models.FollowCounts, error) {
	return g.follows.Counts(ctx, userID)
}

// IsFollowing is false for an anonymous viewer.
func (g *SocialGraph) IsFollowing(ctx context.Context, viewerID, targetID string) (bool, error) {
	if viewerID == "" || viewerID == targetID {
		return false, nil
	}
	return g.follows.IsFollowing(ctx, viewerID, targetID)
}
