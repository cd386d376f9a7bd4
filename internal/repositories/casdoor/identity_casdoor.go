package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/learnity/registration-service/internal/repositories"
)

var ErrAccountNotCreated = errors.New("identity provider rejected account creation")

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
	RedirectURI      string
}

// IdentityCasdoor is the Casdoor-backed identity gateway. Read paths go
// through a redis cache; token verification and account creation never do.
type IdentityCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client
	config CasdoorConfig

	cachePrefix string
	cacheTTL    time.Duration
}

func NewIdentityCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.IdentityRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &IdentityCasdoor{
		client:      client,
		redis:       redisClient,
		config:      config,
		cachePrefix: "identity:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (i *IdentityCasdoor) getCacheKey(key string) string {
	return fmt.Sprintf("%s%s", i.cachePrefix, key)
}

func (i *IdentityCasdoor) getClaimsFromCache(ctx context.Context, key string) (*repositories.IdentityClaims, error) {
	if i.redis == nil {
		return nil, nil
	}

	data, err := i.redis.Get(ctx, i.getCacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var claims repositories.IdentityClaims
	if err := json.Unmarshal([]byte(data), &claims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached claims: %w", err)
	}

	return &claims, nil
}

func (i *IdentityCasdoor) setClaimsCache(ctx context.Context, key string, claims *repositories.IdentityClaims) {
	if i.redis == nil {
		return
	}

	data, err := json.Marshal(claims)
	if err != nil {
		return
	}

	i.redis.Set(ctx, i.getCacheKey(key), data, i.cacheTTL)
}

func (i *IdentityCasdoor) invalidateEmail(ctx context.Context, email string) {
	if i.redis == nil {
		return
	}
	i.redis.Del(ctx,
		i.getCacheKey(fmt.Sprintf("email:%s", email)),
		i.getCacheKey(fmt.Sprintf("exists:email:%s", email)),
	)
}

// ===== CONVERSION =====

func (i *IdentityCasdoor) convertUserToClaims(user *casdoorsdk.User) *repositories.IdentityClaims {
	if user == nil {
		return nil
	}
	return &repositories.IdentityClaims{
		SubjectID:     user.Id,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		EmailVerified: user.EmailVerified,
	}
}

// ===== TOKEN VERIFICATION =====

// VerifyToken validates the bearer token signature against the provider
// certificate and returns the embedded subject claims. Never cached.
func (i *IdentityCasdoor) VerifyToken(ctx context.Context, token string) (*repositories.IdentityClaims, error) {
	claims, err := i.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Id == "" {
		return nil, fmt.Errorf("token carries no subject id")
	}

	return &repositories.IdentityClaims{
		SubjectID:     claims.Id,
		Email:         claims.Email,
		DisplayName:   claims.DisplayName,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// ===== ACCOUNT OPERATIONS =====

// CreateAccount provisions a provider account. The subject id is generated
// locally so the caller knows it even when the provider echoes nothing back.
func (i *IdentityCasdoor) CreateAccount(ctx context.Context, req repositories.CreateAccountRequest) (*repositories.CreatedAccount, error) {
	subjectID := uuid.New().String()

	displayName := req.FirstName + " " + req.LastName
	casdoorUser := &casdoorsdk.User{
		Owner:             i.config.OrganizationName,
		Name:              req.Email,
		Id:                subjectID,
		DisplayName:       displayName,
		Email:             req.Email,
		Password:          req.Password,
		Type:              string(req.Role),
		SignupApplication: i.config.ApplicationName,
		CreatedTime:       time.Now().Format(time.RFC3339),
	}

	ok, err := i.client.AddUser(casdoorUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create account at provider: %w", err)
	}
	if !ok {
		return nil, ErrAccountNotCreated
	}

	i.invalidateEmail(ctx, req.Email)

	return &repositories.CreatedAccount{
		SubjectID:     subjectID,
		EmailVerified: false,
		SigninURL:     i.client.GetSigninUrl(i.config.RedirectURI),
	}, nil
}

// GetByEmail retrieves provider account claims by email
func (i *IdentityCasdoor) GetByEmail(ctx context.Context, email string) (*repositories.IdentityClaims, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	if cached, err := i.getClaimsFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	casdoorUser, err := i.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email from provider: %w", err)
	}
	if casdoorUser == nil {
		return nil, repositories.ErrNotFound
	}

	claims := i.convertUserToClaims(casdoorUser)
	i.setClaimsCache(ctx, cacheKey, claims)

	return claims, nil
}

// ExistsByEmail checks whether a provider account exists for the email
func (i *IdentityCasdoor) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	cacheKey := fmt.Sprintf("exists:email:%s", email)
	if i.redis != nil {
		exists, err := i.redis.Get(ctx, i.getCacheKey(cacheKey)).Result()
		if err == nil {
			return exists == "true", nil
		}
	}

	casdoorUser, err := i.client.GetUserByEmail(email)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence by email: %w", err)
	}

	exists := casdoorUser != nil

	// Existence answers go stale fast, keep them for a minute only
	if i.redis != nil {
		i.redis.Set(ctx, i.getCacheKey(cacheKey), fmt.Sprintf("%t", exists), 1*time.Minute)
	}

	return exists, nil
}
