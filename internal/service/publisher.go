package service

import (
	"context"

	"twitterclone/internal/media"
	"twitterclone/internal/models"
)

// ChangePublisher receives every committed mutation.
type ChangePublisher interface {
	Publish(ctx context.Context, change models.Change)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.Change) {}

// MediaUploader stores an uploaded file and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, in media.UploadInput) (string, error)
}

func publisherOrNop(p ChangePublisher) ChangePublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func requireViewer(viewerID string) error {
	if viewerID == "" {
		return models.NewUnauthenticatedError("You must be signed in")
	}
	return nil
}
