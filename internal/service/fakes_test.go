package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"shop_api/internal/domain"
	"shop_api/internal/store"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[uint]*domain.User
	nextID uint
	err    error // returned by every call when set
}

var _ store.UserStore = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[uint]*domain.User)}
}

func (f *fakeUsers) add(u domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = &u
	cp := u
	return &cp
}

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.byID {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, other := range f.byID {
		if other.Username == u.Username || other.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Save(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[u.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) List(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	all := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.User{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

type fakeCarts struct {
	mu        sync.Mutex
	byUser    map[uint]*domain.Cart
	nextID    uint
	creates   int
	updates   int
	updateErr error // returned by Update when set
}

var _ store.CartStore = (*fakeCarts)(nil)

func newFakeCarts() *fakeCarts {
	return &fakeCarts{byUser: make(map[uint]*domain.Cart)}
}

func (f *fakeCarts) snapshot(userID uint) *domain.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byUser[userID]; ok {
		return c.Clone()
	}
	return nil
}

func (f *fakeCarts) FindByUserID(_ context.Context, userID uint) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c.Clone(), nil
}

func (f *fakeCarts) Create(_ context.Context, c *domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUser[c.UserID]; ok {
		return store.ErrDuplicate
	}
	f.creates++
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.byUser[c.UserID] = c.Clone()
	return nil
}

func (f *fakeCarts) Update(_ context.Context, c *domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byUser[c.UserID]
	if !ok || stored.Version != c.Version {
		return store.ErrConflict
	}
	f.updates++
	cp := c.Clone()
	cp.Version++
	f.byUser[c.UserID] = cp
	c.Version++
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	byID   map[uint]*domain.Order
	nextID uint
	err    error
}

var _ store.OrderStore = (*fakeOrders)(nil)

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: make(map[uint]*domain.Order)}
}

func (f *fakeOrders) Create(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now()
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id uint) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID uint) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeOrders) List(_ context.Context, flt store.OrderFilter, offset, limit int) ([]domain.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []domain.Order
	for _, o := range f.byID {
		if flt.UserID != 0 && o.UserID != flt.UserID {
			continue
		}
		if flt.Status != "" && o.Status != flt.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	return out[offset:min(offset+limit, len(out))], total, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = status
	return nil
}

type fakeProfiles struct {
	mu     sync.Mutex
	byUser map[uint]*domain.Profile
	nextID uint
}

var _ store.ProfileStore = (*fakeProfiles)(nil)

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byUser: make(map[uint]*domain.Profile)}
}

func (f *fakeProfiles) FindByUserID(_ context.Context, userID uint) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Create(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUser[p.UserID]; ok {
		return store.ErrDuplicate
	}
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byUser[p.UserID] = &cp
	return nil
}

func (f *fakeProfiles) Save(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.byUser[p.UserID] = &cp
	return nil
}
