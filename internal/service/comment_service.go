package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"twitterclone/internal/models"
	"twitterclone/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	profiles    *ProfileResolver
	publisher   ChangePublisher
}

type AddCommentInput struct {
	ViewerID string
	PostID   string
	Text     string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	profiles *ProfileResolver,
	publisher ChangePublisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		profiles:    profiles,
		publisher:   publisherOrNop(publisher),
	}
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if err := requireViewer(in.ViewerID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", models.MaxCommentLength))
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID, in.ViewerID)
	if err != nil {
		return nil, err
	}
	author, err := s.profiles.Resolve(ctx, in.ViewerID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:         post.ID,
		SenderUID:      in.ViewerID,
		Sender:         author.DisplayName,
		SenderPhotoURL: author.AvatarURL,
		Text:           text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Likes = []string{}

	s.publisher.Publish(ctx, models.Change{
		Kind:            models.ChangeCommentAdded,
		PostID:          post.ID,
		CommentID:       comment.ID,
		AuthorID:        post.SenderUID,
		CommentAuthorID: in.ViewerID,
		ActorID:         in.ViewerID,
	})
	return comment, nil
}

// ToggleCommentLike flips the viewer's like on one comment.
func (s *CommentService) ToggleCommentLike(ctx context.Context, postID, commentID, viewerID string) (*models.LikeResult, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	res, err := s.commentRepo.ToggleLike(ctx, postID, commentID, viewerID)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, models.Change{
		Kind:            models.ChangeCommentLiked,
		PostID:          postID,
		CommentID:       commentID,
		AuthorID:        s.postAuthor(ctx, postID),
		CommentAuthorID: comment.SenderUID,
		ActorID:         viewerID,
		Active:          res.Liked,
	})
	return res, nil
}

// DeleteComment removes a comment written by the viewer.
func (s *CommentService) DeleteComment(ctx context.Context, postID, commentID, viewerID string) error {
	if err := requireViewer(viewerID); err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if comment.SenderUID != viewerID {
		return models.NewUnauthorizedError("You can only delete your own comments")
	}
	if err := s.commentRepo.Delete(ctx, postID, commentID); err != nil {
		return err
	}

	s.publisher.Publish(ctx, models.Change{
		Kind:            models.ChangeCommentDeleted,
		PostID:          postID,
		CommentID:       commentID,
		AuthorID:        s.postAuthor(ctx, postID),
		CommentAuthorID: comment.SenderUID,
		ActorID:         viewerID,
	})
	return nil
}

func (s *CommentService) postAuthor(ctx context.Context, postID string) string {
	post, err := s.postRepo.GetByID(ctx, postID, "")
	if err != nil {
		return ""
	}
	return post.SenderUID
}
