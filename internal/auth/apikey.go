// Package auth provides authentication middleware for API key and JWT-based tenant authentication.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// APIKeyHeader is the request header for API key authentication
	APIKeyHeader = "X-API-Key"

	// tenantContextKey is the context key for storing tenant info
	tenantContextKey contextKey = "tenant"
)

// TenantInfo holds tenant information extracted from authentication
type TenantInfo struct {
	ID        uuid.UUID
	Name      string
	Plan      string
	LLMBudget int64
}

// Authenticator validates tenant credentials on incoming requests. A request
// may present a raw API key or a bearer token previously issued for one.
type Authenticator struct {
	tenantRepo  repository.TenantRepository
	jwtManager  *JWTManager
	adminAPIKey string
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(tenantRepo repository.TenantRepository, jwtManager *JWTManager, adminAPIKey string) *Authenticator {
	return &Authenticator{
		tenantRepo:  tenantRepo,
		jwtManager:  jwtManager,
		adminAPIKey: adminAPIKey,
	}
}

// Middleware authenticates the request and stores tenant info in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := a.authenticate(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), tenantContextKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards management endpoints with the configured admin key.
// With no admin key configured the check is skipped, so local setups can
// onboard tenants without extra ceremony.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.adminAPIKey != "" {
			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if key != a.adminAPIKey {
				writeAuthError(w, http.StatusForbidden, "invalid admin API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the tenant from either credential form.
func (a *Authenticator) authenticate(r *http.Request) (*TenantInfo, error) {
	ctx := r.Context()

	if apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader)); apiKey != "" {
		tenant, err := a.tenantRepo.GetByAPIKey(ctx, apiKey)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, errors.New("invalid API key")
			}
			return nil, errors.New("failed to validate API key")
		}
		return fromTenant(tenant), nil
	}

	if token, ok := bearerToken(r); ok {
		if a.jwtManager == nil {
			return nil, errors.New("bearer tokens are not enabled")
		}
		claims, err := a.jwtManager.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		tenantID, err := claims.GetTenantID()
		if err != nil {
			return nil, ErrInvalidClaims
		}
		tenant, err := a.tenantRepo.GetByID(ctx, tenantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, errors.New("tenant no longer exists")
			}
			return nil, errors.New("failed to load tenant")
		}
		return fromTenant(tenant), nil
	}

	return nil, errors.New("missing API key")
}

// IssueToken exchanges a valid API key for a signed bearer token.
func (a *Authenticator) IssueToken(ctx context.Context, apiKey string) (string, error) {
	if a.jwtManager == nil {
		return "", errors.New("bearer tokens are not enabled")
	}

	tenant, err := a.tenantRepo.GetByAPIKey(ctx, strings.TrimSpace(apiKey))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", errors.New("invalid API key")
		}
		return "", errors.New("failed to validate API key")
	}

	return a.jwtManager.GenerateToken(tenant.ID, tenant.Name)
}

func fromTenant(t *repository.Tenant) *TenantInfo {
	return &TenantInfo{
		ID:        t.ID,
		Name:      t.Name,
		Plan:      t.Plan,
		LLMBudget: t.LLMBudget,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authz, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// TenantFromContext extracts tenant info from context
func TenantFromContext(ctx context.Context) (*TenantInfo, bool) {
	tenant, ok := ctx.Value(tenantContextKey).(*TenantInfo)
	return tenant, ok
}

// MustTenantFromContext extracts tenant info from context or panics
func MustTenantFromContext(ctx context.Context) *TenantInfo {
	tenant, ok := TenantFromContext(ctx)
	if !ok {
		panic("tenant not found in context")
	}
	return tenant
}

// TenantIDFromContext extracts just the tenant ID from context
func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenant, ok := TenantFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return tenant.ID, true
}

// WithTenant returns a context carrying the given tenant info. Used by
// tests and internal callers that bypass the HTTP middleware.
func WithTenant(ctx context.Context, tenant *TenantInfo) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenant)
}
