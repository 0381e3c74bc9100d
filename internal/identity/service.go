package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"changeflow/internal/audit"
	id "changeflow/pkg/domain"
	dErrors "changeflow/pkg/domain-errors"
	"changeflow/pkg/platform/sentinel"
	"changeflow/pkg/requestcontext"
)

// Store persists users. Implementations return sentinel errors.
type Store interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, userID id.UserID) (User, error)
	FirstActive(ctx context.Context) (User, error)
}

// AuditRecorder is the slice of the audit API this service needs.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// Service resolves acting and requesting users.
type Service struct {
	store    Store
	recorder AuditRecorder
	logger   *slog.Logger
}

func NewService(store Store, recorder AuditRecorder, logger *slog.Logger) *Service {
	return &Service{store: store, recorder: recorder, logger: logger}
}

// FindByID loads a user, translating store sentinels.
func (s *Service) FindByID(ctx context.Context, userID id.UserID) (User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// IsPrivileged reports whether the user holds the admin role. Unknown users
// are never privileged.
func (s *Service) IsPrivileged(ctx context.Context, userID id.UserID) bool {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return false
	}
	return user.IsPrivileged()
}

// ResolveRequester decides who a draft is requested by:
//
//  1. the authenticated actor on the context, when present and known
//  2. the supplied id, when it names an existing user
//  3. any active user
//  4. a freshly created bootstrap administrator (empty-system case)
func (s *Service) ResolveRequester(ctx context.Context, suppliedID id.UserID) (id.UserID, error) {
	if actorID := requestcontext.ActorID(ctx); !actorID.IsNil() {
		if _, err := s.store.FindByID(ctx, actorID); err == nil {
			return actorID, nil
		}
	}
	if !suppliedID.IsNil() {
		if _, err := s.store.FindByID(ctx, suppliedID); err == nil {
			return suppliedID, nil
		}
	}
	if user, err := s.store.FirstActive(ctx); err == nil {
		return user.ID, nil
	}

	admin, err := s.bootstrapAdmin(ctx)
	if err != nil {
		return id.UserID{}, err
	}
	return admin.ID, nil
}

// bootstrapAdmin creates the initial administrative account with a random
// throwaway password. The hash is stored so the account can be recovered
// through a reset flow; the cleartext is never kept.
func (s *Service) bootstrapAdmin(ctx context.Context) (User, error) {
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate bootstrap secret")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash bootstrap secret")
	}

	admin := User{
		ID:           id.NewUserID(),
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         RoleAdmin,
		Active:       true,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			// Lost a race with a concurrent bootstrap; use whoever won.
			if user, findErr := s.store.FirstActive(ctx); findErr == nil {
				return user, nil
			}
		}
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create bootstrap admin")
	}

	s.logger.WarnContext(ctx, "created bootstrap administrator", "user_id", admin.ID.String())
	if err := s.recorder.Record(ctx, audit.Event{
		Action:     audit.ActionUserBootstrapped,
		ActorID:    admin.ID.String(),
		ActorName:  admin.DisplayName,
		EntityType: "user",
		EntityID:   admin.ID.String(),
		Reason:     "empty system bootstrap",
	}); err != nil {
		return User{}, err
	}
	return admin, nil
}
