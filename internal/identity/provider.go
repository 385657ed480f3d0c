package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"twitterclone/internal/cache"
	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/repository"
	"twitterclone/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost used when hashing new passwords.
var BcryptCost = bcrypt.DefaultCost

const invalidCredentials = "Invalid username or password"

// SignUpInput is a registration request.
type SignUpInput struct {
	Username        string
	ProfileName     string
	Password        string
	ConfirmPassword string
}

// SessionEvent is delivered to OnSessionChange listeners. Session is nil on sign-out.
type SessionEvent struct {
	UserID  string
	Session *Session
}

// Provider owns credentials and session tokens.
type Provider struct {
	creds  repository.CredentialRepository
	users  repository.UserRepository
	secret []byte
	rdb    *redis.Client
	now    func() time.Time

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(SessionEvent)
}

func NewProvider(creds repository.CredentialRepository, users repository.UserRepository, secret string, rdb *redis.Client) *Provider {
	return &Provider{
		creds:     creds,
		users:     users,
		secret:    []byte(secret),
		rdb:       rdb,
		now:       time.Now,
		listeners: make(map[int]func(SessionEvent)),
	}
}

// SignUp creates the profile and credential in one transaction and signs the user in.
// An email-style value signs up under its local part, and the length rules
// apply to that handle.
func (p *Provider) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	username := usernameOf(in.Username)
	if err := validation.Struct(validation.SignUpRequest{
		Username:        username,
		ProfileName:     strings.TrimSpace(in.ProfileName),
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	}); err != nil {
		return nil, err
	}

	email := LoginEmail(in.Username)

	existing, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("This username is already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:    username,
		ProfileName: strings.TrimSpace(in.ProfileName),
		PhotoURL:    models.DefaultPhotoURL,
	}
	cred := &models.Credential{Email: email, PasswordHash: string(hash)}
	if err := p.creds.CreateWithUser(ctx, cred, user); err != nil {
		return nil, err
	}

	sess, err := signToken(p.secret, user.ID, user.Username, p.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "user signed up", "user_id", user.ID, "username", user.Username)
	p.emit(SessionEvent{UserID: user.ID, Session: sess})
	return sess, nil
}

// SignIn accepts a handle or an email.
func (p *Provider) SignIn(ctx context.Context, handleOrEmail, password string) (*Session, error) {
	email := LoginEmail(handleOrEmail)
	if email == "" || password == "" {
		return nil, models.NewUnauthenticatedError(invalidCredentials)
	}
	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, models.NewUnauthenticatedError(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthenticatedError(invalidCredentials)
	}

	username := usernameOf(email)
	if user, err := p.users.GetByID(ctx, cred.UserID); err == nil {
		username = user.Username
	}

	sess, err := signToken(p.secret, cred.UserID, username, p.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	p.emit(SessionEvent{UserID: cred.UserID, Session: sess})
	return sess, nil
}

// SignOut revokes the token until it would have expired anyway.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.Verify(ctx, token)
	if err != nil {
		return err
	}
	if p.rdb != nil && claims.ID != "" {
		ttl := claims.ExpiresAt.Sub(p.now())
		if ttl > 0 {
			if err := p.rdb.Set(ctx, cache.BlacklistKey(claims.ID), "1", ttl).Err(); err != nil {
				return models.NewInternalError(err)
			}
		}
	} else if p.rdb == nil {
		middleware.Logger.WarnContext(ctx, "no redis client, token not revoked", "user_id", claims.UserID())
	}
	p.emit(SessionEvent{UserID: claims.UserID()})
	return nil
}

// Verify checks signature, issuer, audience, expiry and revocation.
func (p *Provider) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := parseToken(p.secret, token, p.now())
	if err != nil {
		return nil, models.NewUnauthenticatedError("Invalid or expired token")
	}
	if p.rdb != nil && claims.ID != "" {
		n, err := p.rdb.Exists(ctx, cache.BlacklistKey(claims.ID)).Result()
		if err != nil {
			middleware.Logger.WarnContext(ctx, "revocation check failed", "error", err)
		}
		if n > 0 {
			return nil, models.NewUnauthenticatedError("Token has been revoked")
		}
	}
	return claims, nil
}

// IssueToken signs a session for an existing user without a password check.
// Used by the dev bootstrap and operator tooling.
func (p *Provider) IssueToken(userID, username string) (*Session, error) {
	return signToken(p.secret, userID, username, p.now())
}

// OnSessionChange registers fn for sign-in, sign-up and sign-out events. The
// returned function unsubscribes and may be called more than once.
func (p *Provider) OnSessionChange(fn func(SessionEvent)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) emit(ev SessionEvent) {
	p.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
