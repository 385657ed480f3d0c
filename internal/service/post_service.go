package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"twitterclone/internal/media"
	"twitterclone/internal/models"
	"twitterclone/internal/observability"
	"twitterclone/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	postRepo  repository.PostRepository
	profiles  *ProfileResolver
	uploader  MediaUploader
	publisher ChangePublisher
}

type CreatePostInput struct {
	ViewerID string
	Text     string
	ImageURL string
	// Image, when set, is uploaded with the post preset and replaces ImageURL.
	Image *media.UploadInput
}

type CreateRetweetInput struct {
	ViewerID string
	PostID   string
	Quote    string
}

type ListPostsInput struct {
	Limit    int
	Offset   int
	ViewerID string
	// AuthorID restricts the list to one author when set.
	AuthorID string
}

func NewPostService(
	postRepo repository.PostRepository,
	profiles *ProfileResolver,
	uploader MediaUploader,
	publisher ChangePublisher,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		profiles:  profiles,
		uploader:  uploader,
		publisher: publisherOrNop(publisher),
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	if err := requireViewer(in.ViewerID); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "service.post", "create", attribute.String("user.id", in.ViewerID))
	defer func() { observability.EndSpan(span, err) }()

	text := strings.TrimSpace(in.Text)
	imageURL := strings.TrimSpace(in.ImageURL)
	if utf8.RuneCountInString(text) > models.MaxPostLength {
		return nil, models.NewValidationError(fmt.Sprintf("Post too long (max %d characters)", models.MaxPostLength))
	}
	if text == "" && imageURL == "" && in.Image == nil {
		return nil, models.NewValidationError("Post text or image is required")
	}

	if in.Image != nil {
		if s.uploader == nil {
			return nil, models.NewValidationError("Image uploads are not available")
		}
		upload := *in.Image
		upload.Preset = media.PresetPost
		imageURL, err = s.uploader.Upload(ctx, upload)
		if err != nil {
			return nil, err
		}
	}

	author, err := s.profiles.Resolve(ctx, in.ViewerID)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		SenderUID:      in.ViewerID,
		Sender:         author.DisplayName,
		SenderPhotoURL: author.AvatarURL,
		Text:           text,
		ImageURL:       imageURL,
		Type:           models.PostTypeOriginal,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Likes = []string{}
	post.Comments = []*models.Comment{}

	s.publisher.Publish(ctx, models.Change{
		Kind:     models.ChangePostCreated,
		PostID:   post.ID,
		AuthorID: post.SenderUID,
		ActorID:  in.ViewerID,
	})
	return post, nil
}

// CreateRetweet stores a retweet carrying a frozen snapshot of the original.
// Retweeting a retweet snapshots the underlying original.
func (s *PostService) CreateRetweet(ctx context.Context, in CreateRetweetInput) (*models.Post, error) {
	if err := requireViewer(in.ViewerID); err != nil {
		return nil, err
	}
	quote := strings.TrimSpace(in.Quote)
	if utf8.RuneCountInString(quote) > models.MaxPostLength {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", models.MaxPostLength))
	}

	target, err := s.postRepo.GetByID(ctx, in.PostID, in.ViewerID)
	if err != nil {
		return nil, err
	}
	retweeter, err := s.profiles.Resolve(ctx, in.ViewerID)
	if err != nil {
		return nil, err
	}

	rt := &models.Post{
		SenderUID:      in.ViewerID,
		Sender:         retweeter.DisplayName,
		SenderPhotoURL: retweeter.AvatarURL,
		Type:           models.PostTypeRetweet,
		RetweetComment: quote,
	}
	if target.IsRetweet() {
		rt.RetweetOf = target.RetweetOf
		rt.OriginalSender = target.OriginalSender
		rt.OriginalSenderUID = target.OriginalSenderUID
		rt.OriginalText = target.OriginalText
		rt.OriginalImageURL = target.OriginalImageURL
		rt.OriginalSenderPhotoURL = target.OriginalSenderPhotoURL
	} else {
		rt.RetweetOf = target.ID
		rt.OriginalSender = target.Sender
		rt.OriginalSenderUID = target.SenderUID
		rt.OriginalText = target.Text
		rt.OriginalImageURL = target.ImageURL
		rt.OriginalSenderPhotoURL = target.SenderPhotoURL
	}
	if rt.OriginalSenderPhotoURL == "" {
		rt.OriginalSenderPhotoURL = models.DefaultPhotoURL
	}

	if err := s.postRepo.Create(ctx, rt); err != nil {
		return nil, err
	}
	rt.Likes = []string{}
	rt.Comments = []*models.Comment{}

	s.publisher.Publish(ctx, models.Change{
		Kind:     models.ChangePostCreated,
		PostID:   rt.ID,
		AuthorID: rt.SenderUID,
		ActorID:  in.ViewerID,
	})
	return rt, nil
}

// GetPost returns a post with its likes and comments. viewerID may be empty.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit := repository.ClampLimit(in.Limit)
	if in.AuthorID != "" {
		return s.postRepo.ListByAuthor(ctx, in.AuthorID, limit, in.Offset, in.ViewerID)
	}
	return s.postRepo.List(ctx, limit, in.Offset, in.ViewerID)
}

// ToggleLike flips the viewer's like on a post.
func (s *PostService) ToggleLike(ctx context.Context, postID, viewerID string) (*models.LikeResult, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	res, err := s.postRepo.ToggleLike(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	change := models.Change{Kind: models.ChangePostLiked, PostID: postID, ActorID: viewerID, Active: res.Liked}
	// the author is only needed for routing; a failed lookup still publishes
	if post, getErr := s.postRepo.GetByID(ctx, postID, ""); getErr == nil {
		change.AuthorID = post.SenderUID
	}
	s.publisher.Publish(ctx, change)
	return res, nil
}

// DeletePost removes a post owned by the viewer together with its comments and likes.
func (s *PostService) DeletePost(ctx context.Context, postID, viewerID string) error {
	if err := requireViewer(viewerID); err != nil {
		return err
	}
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return err
	}
	if post.SenderUID != viewerID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	s.publisher.Publish(ctx, models.Change{
		Kind:     models.ChangePostDeleted,
		PostID:   postID,
		AuthorID: post.SenderUID,
		ActorID:  viewerID,
	})
	return nil
}
