package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/duochat/internal/audit"
	"github.com/weiawesome/duochat/internal/cache"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/internal/repository"
	"github.com/weiawesome/duochat/pkg/database"
	"github.com/weiawesome/duochat/pkg/log"
)

type groupServiceImpl struct {
	repo     repository.GroupRepository
	users    repository.UserRepository
	cache    cache.GroupCache
	cacheTTL time.Duration
	sf       singleflight.Group

	// versions counts committed membership changes per group. A cache fill
	// is written only if no change committed since its store read.
	cacheMu  sync.Mutex
	versions map[string]uint64
}

func NewGroupService(
	repo repository.GroupRepository,
	users repository.UserRepository,
	groupCache cache.GroupCache,
	cacheTTL time.Duration,
) GroupService {
	if groupCache == nil {
		groupCache = cache.NoopGroupCache{}
	}
	return &groupServiceImpl{
		repo:     repo,
		users:    users,
		cache:    groupCache,
		cacheTTL: cacheTTL,
		versions: make(map[string]uint64),
	}
}

// CreateGroup creates a group of the requested members plus the creator.
func (s *groupServiceImpl) CreateGroup(ctx context.Context, creator string, req *domain.CreateGroupRequest) (*domain.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrEmptyGroupName
	}

	requested := database.StringArray(nil).Union(trimAll(req.Members)...)
	if len(requested) == 0 {
		return nil, domain.ErrEmptyMembers
	}
	if err := s.requireUsers(ctx, requested); err != nil {
		return nil, err
	}

	group := &domain.Group{
		Name:      name,
		Members:   requested.Union(creator),
		CreatedBy: creator,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreateGroup, creator, group.ID, strings.Join(group.Members, ","), "group created")
	return group, nil
}

// AddMembers unions newMembers into the group. Adding existing members is a no-op.
func (s *groupServiceImpl) AddMembers(ctx context.Context, requester, groupID string, newMembers []string) (*domain.Group, error) {
	l := log.Ctx(ctx)

	members := database.StringArray(nil).Union(trimAll(newMembers)...)
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: new members list is required", domain.ErrInvalidArgument)
	}

	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, domain.ErrNotGroupMember
	}
	if err := s.requireUsers(ctx, members); err != nil {
		return nil, err
	}

	updated, err := s.repo.AddMembers(ctx, groupID, members)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.versions[groupID]++
	if err := s.cache.Set(ctx, updated, s.cacheTTL); err != nil {
		l.Warn().Err(err).Str(log.FieldGroupID, groupID).Msg("cache set error")
		if err := s.cache.Delete(ctx, groupID); err != nil {
			l.Warn().Err(err).Str(log.FieldGroupID, groupID).Msg("cache delete error")
		}
	}
	s.cacheMu.Unlock()

	audit.LogWithDetail(ctx, audit.ActionAddMembers, requester, groupID, strings.Join(members, ","), "group members added")
	return updated, nil
}

func (s *groupServiceImpl) ListGroups(ctx context.Context, username string) ([]domain.Group, error) {
	return s.repo.ListByMember(ctx, username)
}

// GetGroup returns a group, reading through the cache. Concurrent lookups
// of the same group share one store query.
func (s *groupServiceImpl) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	result, err, _ := s.sf.Do(groupID, func() (interface{}, error) {
		return s.fetchWithCache(ctx, groupID)
	})
	if err != nil {
		return nil, err
	}

	group, ok := result.(*domain.Group)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from singleflight", domain.ErrInternal)
	}
	cp := *group
	cp.Members = append([]string(nil), group.Members...)
	return &cp, nil
}

func (s *groupServiceImpl) Members(ctx context.Context, groupID string) ([]string, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group.Members, nil
}

func (s *groupServiceImpl) fetchWithCache(ctx context.Context, groupID string) (*domain.Group, error) {
	cached, err := s.cache.Get(ctx, groupID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("cache get error")
	}

	s.cacheMu.Lock()
	seen := s.versions[groupID]
	s.cacheMu.Unlock()

	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.versions[groupID] != seen {
		// members changed while reading; AddMembers already wrote the new set
		return group, nil
	}
	if err := s.cache.Set(ctx, group, s.cacheTTL); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("cache set error")
	}
	return group, nil
}

func (s *groupServiceImpl) requireUsers(ctx context.Context, usernames []string) error {
	for _, u := range usernames {
		ok, err := s.users.Exists(ctx, u)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown user %q", domain.ErrInvalidArgument, u)
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
