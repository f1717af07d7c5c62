package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	repos "github.com/yungbote/graph-api/internal/data/repos/auth"
	types "github.com/yungbote/graph-api/internal/domain/auth"
	"github.com/yungbote/graph-api/internal/platform/apierr"
	"github.com/yungbote/graph-api/internal/platform/logger"
)

// AuthorizationContext is the per-request view of a validated token: identity
// plus scopes. It lives on the request context and dies with the request.
type AuthorizationContext struct {
	TokenID   string     `json:"token_id"`
	TokenName string     `json:"token_name"`
	Username  string     `json:"username"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Scopes    []string   `json:"scopes"`
	UseCount  int64      `json:"use_count"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

func (a *AuthorizationContext) HasScope(scope string) bool {
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type GenerateTokenInput struct {
	Name          string
	Description   string
	Scopes        []string
	ExpiresInDays int
	Username      string
	FullName      string
	Email         string
	CreatedBy     string
}

type AuthService interface {
	// ValidateToken resolves a bearer credential to its stored record, or an
	// unauthenticated rejection. Unknown, inactive and expired tokens are
	// indistinguishable to the caller.
	ValidateToken(ctx context.Context, raw string) (*types.AccessToken, error)
	ContextFromToken(ctx context.Context, raw string) (context.Context, *AuthorizationContext, error)
	RequireScopes(authz *AuthorizationContext, required ...string) error

	GenerateToken(ctx context.Context, in GenerateTokenInput) (*types.AccessToken, error)
	ListTokens(ctx context.Context) ([]*types.AccessToken, error)
	SetTokenActive(ctx context.Context, tokenID string, active bool) (bool, error)
	DeleteToken(ctx context.Context, tokenID string) (bool, error)
}

type authService struct {
	db     *gorm.DB
	log    *logger.Logger
	tokens repos.AccessTokenRepo
}

func NewAuthService(db *gorm.DB, log *logger.Logger, tokens repos.AccessTokenRepo) AuthService {
	return &authService{
		db:     db,
		log:    log.With("service", "AuthService"),
		tokens: tokens,
	}
}

type authzCtxKey struct{}

func WithAuthorization(ctx context.Context, authz *AuthorizationContext) context.Context {
	return context.WithValue(ctx, authzCtxKey{}, authz)
}

func AuthorizationFrom(ctx context.Context) *AuthorizationContext {
	authz, _ := ctx.Value(authzCtxKey{}).(*AuthorizationContext)
	return authz
}

func (as *authService) ValidateToken(ctx context.Context, raw string) (*types.AccessToken, error) {
	secret := strings.TrimPrefix(strings.TrimSpace(raw), "Bearer ")
	if secret == "" {
		return nil, apierr.Unauthenticated(errors.New("missing token"))
	}

	record, err := as.tokens.GetBySecret(ctx, nil, secret)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			as.log.Error("token lookup failed", "error", err)
		}
		return nil, apierr.Unauthenticated(errors.New("invalid token"))
	}

	if !record.IsActive {
		return nil, apierr.Unauthenticated(errors.New("token is inactive"))
	}
	if record.Expired(time.Now()) {
		return nil, apierr.Unauthenticated(errors.New("token has expired"))
	}

	// Usage bookkeeping must never block or fail the decision.
	go func(secret string) {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := as.tokens.TouchUsage(bgCtx, nil, secret); err != nil {
			as.log.Warn("updating token usage failed", "token_id", record.TokenID, "error", err)
		}
	}(secret)

	return record, nil
}

func (as *authService) ContextFromToken(ctx context.Context, raw string) (context.Context, *AuthorizationContext, error) {
	record, err := as.ValidateToken(ctx, raw)
	if err != nil {
		return ctx, nil, err
	}
	authz := &AuthorizationContext{
		TokenID:   record.TokenID,
		TokenName: record.Name,
		Username:  record.Username,
		FullName:  record.FullName,
		Email:     record.Email,
		Scopes:    record.ScopeList(),
		UseCount:  record.UseCount,
		LastUsed:  record.LastUsed,
	}
	return WithAuthorization(ctx, authz), authz, nil
}

func (as *authService) RequireScopes(authz *AuthorizationContext, required ...string) error {
	if authz == nil {
		return apierr.Unauthenticated(errors.New("missing authorization"))
	}
	if authz.HasScope(types.ScopeAdmin) {
		return nil
	}
	for _, scope := range required {
		if !authz.HasScope(scope) {
			return apierr.Forbidden(fmt.Errorf("not enough permissions, required scope: %s", scope))
		}
	}
	return nil
}

func (as *authService) GenerateToken(ctx context.Context, in GenerateTokenInput) (*types.AccessToken, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apierr.Validation(errors.New("token name is required"))
	}
	scopes := in.Scopes
	if len(scopes) == 0 {
		scopes = []string{types.ScopeReadMedicalData}
	}

	secretSuffix, err := randomSuffix(32)
	if err != nil {
		return nil, err
	}
	idSuffix, err := randomSuffix(8)
	if err != nil {
		return nil, err
	}

	token := &types.AccessToken{
		Token:       "mapi_" + secretSuffix,
		TokenID:     "token_" + idSuffix,
		Name:        in.Name,
		Description: in.Description,
		IsActive:    true,
		Username:    in.Username,
		FullName:    in.FullName,
		Email:       in.Email,
		CreatedBy:   in.CreatedBy,
	}
	if err := token.SetScopes(scopes); err != nil {
		return nil, err
	}
	if in.ExpiresInDays > 0 {
		expires := time.Now().AddDate(0, 0, in.ExpiresInDays)
		token.ExpiresAt = &expires
	}
	if token.Username == "" {
		token.Username = "user_" + idSuffix
	}
	if token.FullName == "" {
		token.FullName = "Token User - " + in.Name
	}
	if token.Email == "" {
		token.Email = "generated@medical-api.com"
	}

	created, err := as.tokens.Create(ctx, nil, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	as.log.Info("access token created", "token_id", created.TokenID, "name", created.Name, "scopes", scopes)
	return created, nil
}

func (as *authService) ListTokens(ctx context.Context) ([]*types.AccessToken, error) {
	return as.tokens.List(ctx, nil)
}

func (as *authService) SetTokenActive(ctx context.Context, tokenID string, active bool) (bool, error) {
	return as.tokens.SetActive(ctx, nil, tokenID, active)
}

func (as *authService) DeleteToken(ctx context.Context, tokenID string) (bool, error) {
	return as.tokens.DeleteByTokenID(ctx, nil, tokenID)
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating random token bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
