package casdoor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/placement-service/internal/cache"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// UserCasdoor is a read-only UserRepository backed by Casdoor. The placement
// service never creates or mutates users; it only resolves callers and their
// roles, so every lookup is cached aggressively.
type UserCasdoor struct {
	client   *casdoorsdk.Client
	users    *cache.CacheHelper
	cacheTTL time.Duration
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &UserCasdoor{
		client:   client,
		users:    cache.NewCacheHelper(redisClient, "user:"),
		cacheTTL: 15 * time.Minute,
	}
}

func (u *UserCasdoor) cached(ctx context.Context, key string) *models.User {
	var user models.User
	if err := u.users.Get(ctx, key, &user); err != nil {
		return nil
	}
	return &user
}

// cacheUser stores the user under both its id and email keys so either
// lookup path hits.
func (u *UserCasdoor) cacheUser(ctx context.Context, user *models.User) {
	_ = u.users.Set(ctx, "id:"+user.ID, user, u.cacheTTL)
	if user.Email != "" {
		_ = u.users.Set(ctx, "email:"+user.Email, user, u.cacheTTL)
	}
}

func (u *UserCasdoor) toModel(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	return &models.User{
		ID:        casdoorUser.Id,
		FullName:  casdoorUser.DisplayName,
		Email:     casdoorUser.Email,
		Role:      resolveRole(casdoorUser),
		AvatarURL: &casdoorUser.Avatar,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// resolveRole collapses Casdoor's role list to the single role this service
// cares about. Admin wins over everything; anything unrecognized is a student.
func resolveRole(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}
	for _, casdoorRole := range casdoorUser.Roles {
		switch strings.ToLower(casdoorRole.Name) {
		case "admin", "administrator":
			return models.RoleAdmin
		}
	}
	return models.RoleStudent
}

// GetByID retrieves a user by ID
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user := u.cached(ctx, "id:"+id); user != nil {
		return user, nil
	}

	casdoorUser, err := u.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	user := u.toModel(casdoorUser)
	if user == nil {
		return nil, fmt.Errorf("user not found with ID %s", id)
	}

	u.cacheUser(ctx, user)
	return user, nil
}

// GetByEmail retrieves a user by email
func (u *UserCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user := u.cached(ctx, "email:"+email); user != nil {
		return user, nil
	}

	casdoorUser, err := u.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}
	user := u.toModel(casdoorUser)
	if user == nil {
		return nil, fmt.Errorf("user not found with email %s", email)
	}

	u.cacheUser(ctx, user)
	return user, nil
}

// GetByIDs resolves a batch of user IDs, skipping any that cannot be
// resolved rather than failing the whole batch.
func (u *UserCasdoor) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetByID(ctx, id)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// ExistsByID checks if a user exists by ID
func (u *UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	if user := u.cached(ctx, "id:"+id); user != nil {
		return true, nil
	}

	casdoorUser, err := u.client.GetUser(id)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return casdoorUser != nil, nil
}

// HasRole checks if a user has a specific role
func (u *UserCasdoor) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}

// List retrieves a paginated list of users with an optional email query.
// Casdoor pages are 1-indexed.
func (u *UserCasdoor) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if filters.Limit <= 0 {
		filters.Limit = 10
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	page := (filters.Offset / filters.Limit) + 1
	if page < 1 {
		page = 1
	}

	queryMap := make(map[string]string)
	if filters.Query != "" {
		queryMap["field"] = "email"
		queryMap["value"] = filters.Query
	}

	casdoorUsers, count, err := u.client.GetPaginationUsers(page, filters.Limit, queryMap)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get users from Casdoor: %w", err)
	}

	users := make([]*models.User, 0, len(casdoorUsers))
	for _, casdoorUser := range casdoorUsers {
		if user := u.toModel(casdoorUser); user != nil {
			users = append(users, user)
			u.cacheUser(ctx, user)
		}
	}
	return users, int64(count), nil
}
