// Package teams groups users so lease requests can be scoped to a team.
package teams

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/utils"
)

const (
	namespace     = "teams"
	schemaVersion = 1
)

type Team struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Owner      string   `json:"owner"`
	Members    []string `json:"members"`
	store.Meta `json:"meta"`
}

func (t *Team) RecordKey() store.Key {
	return store.NewKey(t.ID)
}

// HasMember reports whether email belongs to the team. The owner is always a member.
func (t *Team) HasMember(email string) bool {
	email = normalize(email)

	return t.Owner == email || slices.Contains(t.Members, email)
}

func (t *Team) IsOwner(email string) bool {
	return t.Owner == normalize(email)
}

func (t *Team) clone() *Team {
	next := *t
	next.Members = slices.Clone(t.Members)

	return &next
}

type Registry struct {
	table         *store.Table[*Team]
	conflictRetry utils.RetryConfig
}

func NewRegistry(backend store.Backend) *Registry {
	return &Registry{
		table: store.NewTable(backend, namespace, schemaVersion, func() *Team { return &Team{} }),
		conflictRetry: utils.RetryConfig{
			Attempts:     3,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     100 * time.Millisecond,
		},
	}
}

func (r *Registry) Create(ctx context.Context, name, owner string) (*Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, lifecycle.Invalid("name", "is required")
	}

	if strings.TrimSpace(owner) == "" {
		return nil, lifecycle.Invalid("owner", "is required")
	}

	team := &Team{
		ID:      uuid.NewString(),
		Name:    name,
		Owner:   normalize(owner),
		Members: []string{},
	}

	if err := r.table.Create(ctx, team); err != nil {
		return nil, err
	}

	logger.L().Info(ctx, "created team", logger.WithUserEmail(team.Owner))

	return team, nil
}

func (r *Registry) Get(ctx context.Context, id string) (*Team, error) {
	return r.table.Get(ctx, store.NewKey(id))
}

func (r *Registry) AddMember(ctx context.Context, id, email string) (*Team, error) {
	if strings.TrimSpace(email) == "" {
		return nil, lifecycle.Invalid("email", "is required")
	}

	return r.update(ctx, id, func(t *Team) bool {
		if t.HasMember(email) {
			return false
		}

		t.Members = append(t.Members, normalize(email))
		slices.Sort(t.Members)

		return true
	})
}

func (r *Registry) RemoveMember(ctx context.Context, id, email string) (*Team, error) {
	return r.update(ctx, id, func(t *Team) bool {
		email := normalize(email)
		if email == t.Owner {
			return false
		}

		before := len(t.Members)
		t.Members = slices.DeleteFunc(t.Members, func(m string) bool { return m == email })

		return len(t.Members) != before
	})
}

// IsMember reports whether email belongs to the team with the given id.
func (r *Registry) IsMember(ctx context.Context, id, email string) (bool, error) {
	team, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}

	return team.HasMember(email), nil
}

func (r *Registry) update(ctx context.Context, id string, mutate func(*Team) bool) (*Team, error) {
	var result *Team

	err := utils.RetryWhen(ctx, r.conflictRetry, store.IsConflict, func(ctx context.Context) error {
		current, err := r.Get(ctx, id)
		if err != nil {
			return err
		}

		next := current.clone()
		if !mutate(next) {
			result = current

			return nil
		}

		if err := r.table.PutWithVersionCheck(ctx, next, current); err != nil {
			return err
		}

		result = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
