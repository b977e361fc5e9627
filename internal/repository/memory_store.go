package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"orga/internal/domain"
)

// MemoryStore guarda todo en memoria; pensado para desarrollo local y tests.
// Respeta las mismas reglas que el esquema SQL: unicidad de email, dominio y nombre,
// y borrado en cascada tenant -> users -> conversations -> messages.
type MemoryStore struct {
	mu            sync.RWMutex
	tenants       map[string]domain.Tenant
	users         map[string]domain.User
	conversations map[string]domain.Conversation
	messages      map[string]domain.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:       make(map[string]domain.Tenant),
		users:         make(map[string]domain.User),
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string]domain.Message),
	}
}

func (s *MemoryStore) Tenants() TenantRepository             { return memoryTenants{s} }
func (s *MemoryStore) Users() UserRepository                 { return memoryUsers{s} }
func (s *MemoryStore) Conversations() ConversationRepository { return memoryConversations{s} }
func (s *MemoryStore) Messages() MessageRepository           { return memoryMessages{s} }
func (s *MemoryStore) Provisioner() Provisioner              { return memoryProvisioner{s} }

// --- tenants ---

type memoryTenants struct{ s *MemoryStore }

func (r memoryTenants) Create(_ context.Context, tenant domain.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertTenantLocked(tenant)
}

func (r memoryTenants) Ensure(_ context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.tenantByDomainLocked(tenant.Domain); ok {
		return existing, nil
	}
	if err := r.s.insertTenantLocked(tenant); err != nil {
		return domain.Tenant{}, err
	}
	return tenant, nil
}

func (r memoryTenants) GetByID(_ context.Context, id string) (domain.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return domain.Tenant{}, ErrNotFound
	}
	return t, nil
}

func (r memoryTenants) GetByDomain(_ context.Context, domainName string) (domain.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tenantByDomainLocked(domainName)
	if !ok {
		return domain.Tenant{}, ErrNotFound
	}
	return t, nil
}

func (r memoryTenants) List(_ context.Context) ([]domain.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memoryTenants) Update(_ context.Context, tenant domain.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.tenants[tenant.ID]
	if !ok {
		return ErrNotFound
	}
	for id, t := range r.s.tenants {
		if id != tenant.ID && t.Name == tenant.Name {
			return ErrConflict
		}
	}
	// El dominio y la fecha de alta no cambian por update.
	tenant.Domain = current.Domain
	tenant.CreatedAt = current.CreatedAt
	r.s.tenants[tenant.ID] = tenant
	return nil
}

func (r memoryTenants) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.tenants, id)
	for uid, u := range r.s.users {
		if u.TenantID == id {
			r.s.deleteUserLocked(uid)
		}
	}
	return nil
}

func (r memoryTenants) Count(_ context.Context) (int64, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var active int64
	for _, t := range r.s.tenants {
		if t.IsActive {
			active++
		}
	}
	return int64(len(r.s.tenants)), active, nil
}

// --- users ---

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUserLocked(user)
}

func (r memoryUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (r memoryUsers) GetByIDInTenant(_ context.Context, id, tenantID string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok || u.TenantID != tenantID {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (r memoryUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memoryUsers) ListByTenant(_ context.Context, tenantID string) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.User{}
	for _, u := range r.s.users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r memoryUsers) ListAll(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sortUsers(out)
	return out, nil
}

func (r memoryUsers) CountByTenant(_ context.Context, tenantID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, u := range r.s.users {
		if u.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (r memoryUsers) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

func (r memoryUsers) UpdateTenant(_ context.Context, id, tenantID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	if _, ok := r.s.tenants[tenantID]; !ok {
		return ErrNotFound
	}
	u.TenantID = tenantID
	r.s.users[id] = u
	return nil
}

func (r memoryUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return ErrNotFound
	}
	r.s.deleteUserLocked(id)
	return nil
}

// --- conversations ---

type memoryConversations struct{ s *MemoryStore }

func (r memoryConversations) Create(_ context.Context, c domain.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[c.UserID]; !ok {
		return ErrNotFound
	}
	if _, ok := r.s.conversations[c.ID]; ok {
		return ErrConflict
	}
	r.s.conversations[c.ID] = c
	return nil
}

func (r memoryConversations) GetForUser(_ context.Context, id, userID string) (domain.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.conversations[id]
	if !ok || c.UserID != userID {
		return domain.Conversation{}, ErrNotFound
	}
	return c, nil
}

func (r memoryConversations) ListByUser(_ context.Context, userID string) ([]domain.ConversationSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int)
	for _, m := range r.s.messages {
		counts[m.ConversationID]++
	}
	out := []domain.ConversationSummary{}
	for _, c := range r.s.conversations {
		if c.UserID == userID {
			out = append(out, domain.ConversationSummary{Conversation: c, MessageCount: counts[c.ID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r memoryConversations) UpdateTitle(_ context.Context, id, title string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.Title = title
	r.s.conversations[id] = c
	return nil
}

func (r memoryConversations) Touch(_ context.Context, id string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.UpdatedAt = updatedAt
	r.s.conversations[id] = c
	return nil
}

func (r memoryConversations) DeleteForUser(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	r.s.deleteConversationLocked(id)
	return nil
}

// --- messages ---

type memoryMessages struct{ s *MemoryStore }

func (r memoryMessages) Create(_ context.Context, m domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.conversations[m.ConversationID]; !ok {
		return ErrNotFound
	}
	if _, ok := r.s.messages[m.ID]; ok {
		return ErrConflict
	}
	r.s.messages[m.ID] = m
	return nil
}

func (r memoryMessages) ListByConversation(_ context.Context, conversationID string) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Message{}
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memoryMessages) CountByTenantBetween(_ context.Context, tenantID string, from, to time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	r.s.eachMessageLocked(from, to, func(_ domain.Message, owner domain.User) {
		if owner.TenantID == tenantID {
			n++
		}
	})
	return n, nil
}

func (r memoryMessages) CountByUserBetween(_ context.Context, userID string, from, to time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	r.s.eachMessageLocked(from, to, func(_ domain.Message, owner domain.User) {
		if owner.ID == userID {
			n++
		}
	})
	return n, nil
}

func (r memoryMessages) CountByUserInTenantBetween(_ context.Context, tenantID string, from, to time.Time) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int64)
	r.s.eachMessageLocked(from, to, func(_ domain.Message, owner domain.User) {
		if owner.TenantID == tenantID {
			counts[owner.ID]++
		}
	})
	return counts, nil
}

// --- provisioner ---

type memoryProvisioner struct{ s *MemoryStore }

func (p memoryProvisioner) ProvisionAdmin(_ context.Context, tenant domain.Tenant, admin domain.User) (domain.Tenant, domain.User, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	current, ok := p.s.tenantByDomainLocked(tenant.Domain)
	created := false
	if !ok {
		if err := p.s.insertTenantLocked(tenant); err != nil {
			return domain.Tenant{}, domain.User{}, err
		}
		current = tenant
		created = true
	}
	admin.TenantID = current.ID
	if err := p.s.insertUserLocked(admin); err != nil {
		if created {
			delete(p.s.tenants, current.ID)
		}
		return domain.Tenant{}, domain.User{}, err
	}
	return current, admin, nil
}

// --- helpers (requieren el lock tomado) ---

func (s *MemoryStore) insertTenantLocked(tenant domain.Tenant) error {
	for _, t := range s.tenants {
		if t.ID == tenant.ID || t.Domain == tenant.Domain || t.Name == tenant.Name {
			return ErrConflict
		}
	}
	s.tenants[tenant.ID] = tenant
	return nil
}

func (s *MemoryStore) tenantByDomainLocked(domainName string) (domain.Tenant, bool) {
	for _, t := range s.tenants {
		if t.Domain == domainName {
			return t, true
		}
	}
	return domain.Tenant{}, false
}

func (s *MemoryStore) insertUserLocked(user domain.User) error {
	if _, ok := s.tenants[user.TenantID]; !ok {
		return ErrNotFound
	}
	for _, u := range s.users {
		if u.ID == user.ID || u.Email == user.Email {
			return ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) deleteUserLocked(id string) {
	delete(s.users, id)
	for cid, c := range s.conversations {
		if c.UserID == id {
			s.deleteConversationLocked(cid)
		}
	}
}

func (s *MemoryStore) deleteConversationLocked(id string) {
	delete(s.conversations, id)
	for mid, m := range s.messages {
		if m.ConversationID == id {
			delete(s.messages, mid)
		}
	}
}

func (s *MemoryStore) eachMessageLocked(from, to time.Time, fn func(domain.Message, domain.User)) {
	for _, m := range s.messages {
		if m.CreatedAt.Before(from) || !m.CreatedAt.Before(to) {
			continue
		}
		c, ok := s.conversations[m.ConversationID]
		if !ok {
			continue
		}
		owner, ok := s.users[c.UserID]
		if !ok {
			continue
		}
		fn(m, owner)
	}
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
