// Package memory provides in-process repositories with the same semantics as the
// postgres adapter. Every operation runs under a single mutex, which plays the role
// of the database constraints: the handle namespace, the (link, visitor) pair and
// atomic counter increments.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type visitorPair struct {
	linkID     int64
	visitorKey string
}

// Store holds links and visits shared by LinkRepository and VisitRepository.
type Store struct {
	mu          sync.RWMutex
	nextLinkID  int64
	nextVisitID int64
	links       map[int64]*entity.Link
	handles     map[string]int64
	visitors    map[visitorPair]struct{}
	visits      []entity.VisitEvent
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		links:    make(map[int64]*entity.Link),
		handles:  make(map[string]int64),
		visitors: make(map[visitorPair]struct{}),
	}
}

// Links returns the link repository backed by s.
func (s *Store) Links() *LinkRepository {
	return &LinkRepository{s: s}
}

// Visits returns the visit repository backed by s.
func (s *Store) Visits() *VisitRepository {
	return &VisitRepository{s: s}
}

// LinkRepository stores links and their handles.
type LinkRepository struct {
	s *Store
}

func (r *LinkRepository) Create(_ context.Context, link *entity.Link) (*entity.Link, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.handles[link.Token]; exists {
		return nil, entity.ErrTokenExists
	}
	if link.Alias != "" {
		if _, exists := r.s.handles[link.Alias]; exists || link.Alias == link.Token {
			return nil, entity.ErrAliasTaken
		}
	}

	r.s.nextLinkID++
	now := time.Now().UTC()

	stored := *link
	stored.ID = r.s.nextLinkID
	stored.LinkStats = entity.LinkStats{}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.s.links[stored.ID] = &stored
	r.s.handles[stored.Token] = stored.ID
	if stored.Alias != "" {
		r.s.handles[stored.Alias] = stored.ID
	}

	created := stored
	return &created, nil
}

func (r *LinkRepository) GetByID(_ context.Context, id int64) (*entity.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	link, exists := r.s.links[id]
	if !exists {
		return nil, entity.ErrLinkNotFound
	}

	linkCopy := *link
	return &linkCopy, nil
}

func (r *LinkRepository) FindByHandle(_ context.Context, handle string) (*entity.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, exists := r.s.handles[handle]
	if !exists {
		return nil, entity.ErrLinkNotFound
	}

	linkCopy := *r.s.links[id]
	return &linkCopy, nil
}

func (r *LinkRepository) ListByOwner(_ context.Context, ownerID string) ([]entity.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var links []entity.Link
	for _, link := range r.s.links {
		if link.OwnerID == ownerID {
			links = append(links, *link)
		}
	}

	slices.SortFunc(links, func(a, b entity.Link) int {
		return cmp.Compare(b.ID, a.ID)
	})

	return links, nil
}

func (r *LinkRepository) Update(_ context.Context, link *entity.Link, prevAlias string) (*entity.Link, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, exists := r.s.links[link.ID]
	if !exists {
		return nil, entity.ErrLinkNotFound
	}

	if link.Alias != prevAlias && link.Alias != "" {
		if _, taken := r.s.handles[link.Alias]; taken {
			return nil, entity.ErrAliasTaken
		}
	}

	if link.Alias != prevAlias {
		if prevAlias != "" {
			delete(r.s.handles, prevAlias)
		}
		if link.Alias != "" {
			r.s.handles[link.Alias] = link.ID
		}
	}

	stored.Destination = link.Destination
	stored.Alias = link.Alias
	stored.PasswordProtected = link.PasswordProtected
	stored.PasswordHash = link.PasswordHash
	stored.Active = link.Active
	stored.ExpiresAt = link.ExpiresAt
	stored.UpdatedAt = time.Now().UTC()

	updated := *stored
	return &updated, nil
}

func (r *LinkRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	link, exists := r.s.links[id]
	if !exists {
		return entity.ErrLinkNotFound
	}

	delete(r.s.handles, link.Token)
	if link.Alias != "" {
		delete(r.s.handles, link.Alias)
	}
	delete(r.s.links, id)

	for pair := range r.s.visitors {
		if pair.linkID == id {
			delete(r.s.visitors, pair)
		}
	}
	r.s.visits = slices.DeleteFunc(r.s.visits, func(v entity.VisitEvent) bool {
		return v.LinkID == id
	})

	return nil
}

func (r *LinkRepository) IncrementCounters(_ context.Context, id int64, delta entity.CounterDelta, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	link, exists := r.s.links[id]
	if !exists {
		return entity.ErrLinkNotFound
	}

	if delta.Click {
		link.ClickCount++
	}
	if delta.UniqueVisitor {
		link.UniqueVisitorCount++
	}
	accessed := at
	link.LastAccessedAt = &accessed

	return nil
}

// VisitRepository stores visit events and the set of seen visitors.
type VisitRepository struct {
	s *Store
}

func (r *VisitRepository) Append(_ context.Context, visit *entity.VisitEvent) (*entity.VisitEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.links[visit.LinkID]; !exists {
		return nil, entity.ErrLinkNotFound
	}

	pair := visitorPair{linkID: visit.LinkID, visitorKey: visit.VisitorKey}
	_, seen := r.s.visitors[pair]
	if !seen {
		r.s.visitors[pair] = struct{}{}
	}

	r.s.nextVisitID++

	stored := *visit
	stored.ID = r.s.nextVisitID
	stored.IsUnique = !seen
	r.s.visits = append(r.s.visits, stored)

	return &stored, nil
}

func (r *VisitRepository) ListByLink(_ context.Context, linkID int64, from, to time.Time) ([]entity.VisitEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.filterVisits(func(v *entity.VisitEvent) bool {
		return v.LinkID == linkID && inRange(v.VisitedAt, from, to)
	}), nil
}

func (r *VisitRepository) ListByOwner(_ context.Context, ownerID string, from, to time.Time) ([]entity.VisitEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.filterVisits(func(v *entity.VisitEvent) bool {
		return r.s.ownedBy(v.LinkID, ownerID) && inRange(v.VisitedAt, from, to)
	}), nil
}

func (r *VisitRepository) ListRecentByOwner(_ context.Context, ownerID string, limit int) ([]entity.VisitEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	visits := r.s.filterVisits(func(v *entity.VisitEvent) bool {
		return r.s.ownedBy(v.LinkID, ownerID)
	})

	slices.Reverse(visits)
	slices.SortStableFunc(visits, func(a, b entity.VisitEvent) int {
		return b.VisitedAt.Compare(a.VisitedAt)
	})

	if len(visits) > limit {
		visits = visits[:limit]
	}

	return visits, nil
}

func (s *Store) filterVisits(keep func(*entity.VisitEvent) bool) []entity.VisitEvent {
	var visits []entity.VisitEvent
	for i := range s.visits {
		if keep(&s.visits[i]) {
			visits = append(visits, s.visits[i])
		}
	}
	return visits
}

func (s *Store) ownedBy(linkID int64, ownerID string) bool {
	link, exists := s.links[linkID]
	return exists && link.OwnerID == ownerID
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
