// Package auth authenticates API callers with static keys and checks their roles.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

const (
	RoleQueryReader   = "query_reader"
	RoleQueryExecutor = "query_executor"
)

var knownRoles = map[string]bool{
	RoleQueryReader:   true,
	RoleQueryExecutor: true,
}

// Identity is the authenticated caller. KeyID is a short digest of the key,
// safe to log.
type Identity struct {
	KeyID string
	Roles []string
}

func (i Identity) HasRole(role string) bool {
	for _, candidate := range i.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

// NewStaticAPIKeyValidator parses a comma-separated list of key:role|role entries.
func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		key, rolesSpec, ok := strings.Cut(strings.TrimSpace(entry), ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.Contains(rolesSpec, ":") {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:role|role", entry)
		}

		roles := make([]string, 0, 2)
		for _, role := range strings.Split(rolesSpec, "|") {
			role = strings.TrimSpace(role)
			if role == "" {
				continue
			}
			if !knownRoles[role] {
				return nil, fmt.Errorf("invalid static key entry %q: unknown role %q", entry, role)
			}
			roles = append(roles, role)
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("invalid static key entry %q: at least one role is required", entry)
		}
		sort.Strings(roles)
		validator.keys[key] = Identity{KeyID: keyID(key), Roles: roles}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}

func (v *StaticAPIKeyValidator) Len() int { return len(v.keys) }

func keyID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}
