package repository

import (
	"context"
	"errors"

	"twitterclone/internal/models"

	"gorm.io/gorm"
)

// CredentialRepository stores login identities.
type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	// CreateWithUser inserts the profile and its credential in one transaction.
	CreateWithUser(ctx context.Context, cred *models.Credential, user *models.User) error
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// GetByEmail returns nil, nil when the email is unknown.
func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &cred, nil
}

func (r *credentialRepository) CreateWithUser(ctx context.Context, cred *models.Credential, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		cred.UserID = user.ID
		return tx.Create(cred).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("This username is already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}
