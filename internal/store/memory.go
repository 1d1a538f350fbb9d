package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/jaimenoain/ceeq/internal/model"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store for local development and tests.
// It applies the same workspace scoping rules as the Postgres store.
type MemoryStore struct {
	mu         sync.RWMutex
	workspaces map[string]*model.Workspace
	users      map[string]*model.User
	targets    map[string]*model.SourcingTarget
	companies  map[string]*model.Company
	deals      map[string]*model.Deal
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		workspaces: make(map[string]*model.Workspace),
		users:      make(map[string]*model.User),
		targets:    make(map[string]*model.SourcingTarget),
		companies:  make(map[string]*model.Company),
		deals:      make(map[string]*model.Deal),
	}
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error    { return nil }
func (s *MemoryStore) Close() error                      { return nil }

// Workspaces and users

func (s *MemoryStore) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	if ws.Plan == "" {
		ws.Plan = model.PlanFree
	}
	ws.CreatedAt = time.Now().UTC()
	cp := *ws
	s.workspaces[ws.ID] = &cp
	return nil
}

func (s *MemoryStore) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[id]
	if !ok || ws.DeletedAt != nil {
		return nil, nil
	}
	cp := *ws
	return &cp, nil
}

func (s *MemoryStore) DeleteWorkspace(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.workspaces[id]; ok {
		now := time.Now().UTC()
		ws.DeletedAt = &now
	}
	return nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return eris.Errorf("memory: duplicate email %s", u.Email)
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = model.RoleAnalyst
	}
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Sourcing targets

func (s *MemoryStore) GetTarget(ctx context.Context, workspaceID, targetID string) (*model.SourcingTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tg, ok := s.targets[targetID]
	if !ok || tg.WorkspaceID != workspaceID {
		return nil, nil
	}
	cp := *tg
	return &cp, nil
}

func (s *MemoryStore) ListTargets(ctx context.Context, workspaceID string, filter TargetFilter) ([]model.SourcingTarget, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.SourcingTarget
	for _, tg := range s.targets {
		if tg.WorkspaceID != workspaceID {
			continue
		}
		if filter.Status != "" && tg.Status != filter.Status {
			continue
		}
		if filter.Industry != "" && tg.Industry != filter.Industry {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(tg.Name), needle) &&
				!strings.Contains(strings.ToLower(tg.Domain), needle) {
				continue
			}
		}
		matched = append(matched, *tg)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].FitScore != matched[j].FitScore {
			return matched[i].FitScore > matched[j].FitScore
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) BulkInsertTargets(ctx context.Context, workspaceID string, targets []model.SourcingTarget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	for _, tg := range s.targets {
		if tg.WorkspaceID == workspaceID {
			seen[tg.Domain] = true
		}
	}

	var inserted int64
	for _, tg := range targets {
		if seen[tg.Domain] {
			continue
		}
		seen[tg.Domain] = true
		cp := tg
		if cp.ID == "" {
			cp.ID = uuid.New().String()
		}
		if cp.Status == "" {
			cp.Status = model.SourcingUntouched
		}
		cp.WorkspaceID = workspaceID
		cp.CreatedAt = time.Now().UTC()
		s.targets[cp.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) UpdateTargetStatuses(ctx context.Context, workspaceID string, targetIDs []string, status model.SourcingStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, id := range targetIDs {
		if tg, ok := s.targets[id]; ok && tg.WorkspaceID == workspaceID {
			tg.Status = status
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) MarkTargetConverted(ctx context.Context, workspaceID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tg, ok := s.targets[targetID]; ok && tg.WorkspaceID == workspaceID {
		tg.Status = model.SourcingConverted
	}
	return nil
}

// Companies

func (s *MemoryStore) CreateCompany(ctx context.Context, c *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.companies {
		if existing.WorkspaceID == c.WorkspaceID && existing.Fingerprint == c.Fingerprint {
			return eris.Errorf("memory: duplicate company fingerprint in workspace %s", c.WorkspaceID)
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.companies[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCompany(ctx context.Context, workspaceID, id string) (*model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetCompanyByFingerprint(ctx context.Context, workspaceID, fingerprint string) (*model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.companies {
		if c.WorkspaceID == workspaceID && c.Fingerprint == fingerprint {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpdateCompanyFirmographics(ctx context.Context, workspaceID, id string, upd FirmographicsUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.companies[id]
	if !ok || c.WorkspaceID != workspaceID {
		return eris.Errorf("company not found: %s", id)
	}
	if upd.Industry != nil {
		c.Industry = *upd.Industry
	}
	if upd.City != nil {
		c.City = *upd.City
	}
	if upd.State != nil {
		c.State = *upd.State
	}
	if upd.EmployeeCount != nil {
		c.EmployeeCount = upd.EmployeeCount
	}
	return nil
}

// Deals

func (s *MemoryStore) CreateDeal(ctx context.Context, d *model.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.deals {
		if existing.WorkspaceID == d.WorkspaceID && existing.CompanyID == d.CompanyID {
			return eris.Errorf("memory: duplicate deal for company %s", d.CompanyID)
		}
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Stage == "" {
		d.Stage = model.StageInbox
	}
	if d.Status == "" {
		d.Status = model.DealActive
	}
	if d.Visibility == "" {
		d.Visibility = model.VisibilityPrivate
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	s.deals[d.ID] = &cp
	return nil
}

func (s *MemoryStore) GetDeal(ctx context.Context, workspaceID, id string) (*model.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deals[id]
	if !ok || d.WorkspaceID != workspaceID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) GetDealByCompany(ctx context.Context, workspaceID, companyID string) (*model.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.deals {
		if d.WorkspaceID == workspaceID && d.CompanyID == companyID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpdateDealStage(ctx context.Context, workspaceID, id string, stage model.DealStage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok || d.WorkspaceID != workspaceID {
		return eris.Errorf("deal not found: %s", id)
	}
	d.Stage = stage
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) CloseDeal(ctx context.Context, workspaceID, id string, status model.DealStatus, lossReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok || d.WorkspaceID != workspaceID {
		return eris.Errorf("deal not found: %s", id)
	}
	d.Status = status
	d.LossReason = lossReason
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) UpdateDealFinancials(ctx context.Context, workspaceID, id string, upd FinancialsUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok || d.WorkspaceID != workspaceID {
		return eris.Errorf("deal not found: %s", id)
	}
	if upd.AskingPrice != nil {
		d.AskingPrice = upd.AskingPrice
	}
	if upd.Revenue != nil {
		d.Revenue = upd.Revenue
	}
	if upd.EBITDA != nil {
		d.EBITDA = upd.EBITDA
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) ListActiveDeals(ctx context.Context, workspaceID string) ([]model.KanbanDeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kanbanDealsLocked(workspaceID, 0), nil
}

func (s *MemoryStore) RecentDeals(ctx context.Context, workspaceID string, limit int) ([]model.KanbanDeal, error) {
	if limit <= 0 {
		limit = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kanbanDealsLocked(workspaceID, limit), nil
}

// kanbanDealsLocked assumes the read lock is held.
func (s *MemoryStore) kanbanDealsLocked(workspaceID string, limit int) []model.KanbanDeal {
	type dealAt struct {
		deal      *model.Deal
		updatedAt time.Time
	}
	var active []dealAt
	for _, d := range s.deals {
		if d.WorkspaceID == workspaceID && d.Status == model.DealActive {
			active = append(active, dealAt{deal: d, updatedAt: d.UpdatedAt})
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].updatedAt.After(active[j].updatedAt)
	})
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}

	now := time.Now().UTC()
	var deals []model.KanbanDeal
	for _, da := range active {
		kd := model.KanbanDeal{
			ID:         da.deal.ID,
			Stage:      da.deal.Stage,
			Visibility: da.deal.Visibility,
			UpdatedAgo: model.RelativeTime(da.updatedAt, now),
		}
		if c, ok := s.companies[da.deal.CompanyID]; ok {
			kd.CompanyName = c.Name
			kd.Industry = c.Industry
		}
		deals = append(deals, kd)
	}
	return deals
}

func (s *MemoryStore) ListSharedDeals(ctx context.Context) ([]model.SharedDeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var shared []*model.Deal
	for _, d := range s.deals {
		if d.Visibility == model.VisibilityShared && d.Status == model.DealActive {
			shared = append(shared, d)
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		return shared[i].UpdatedAt.After(shared[j].UpdatedAt)
	})

	var deals []model.SharedDeal
	for _, d := range shared {
		sd := model.SharedDeal{
			DealID:        d.ID,
			Stage:         d.Stage,
			Revenue:       d.Revenue,
			EBITDA:        d.EBITDA,
			MarginPercent: d.MarginPercent(),
		}
		if c, ok := s.companies[d.CompanyID]; ok {
			sd.CompanyName = c.Name
		}
		if ws, ok := s.workspaces[d.WorkspaceID]; ok {
			sd.SearcherName = ws.Name
		}
		deals = append(deals, sd)
	}
	return deals, nil
}

// CheckGlobalCollision scans deals across all workspaces; the caller's
// workspace scoping deliberately does not apply here.
func (s *MemoryStore) CheckGlobalCollision(ctx context.Context, fingerprint string) (*CollisionSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig := &CollisionSignal{}
	best := -1
	for _, d := range s.deals {
		if d.Status != model.DealActive {
			continue
		}
		c, ok := s.companies[d.CompanyID]
		if !ok || c.Fingerprint != fingerprint {
			continue
		}
		sig.Collision = true
		if idx := d.Stage.Index(); idx > best {
			best = idx
			sig.Stage = d.Stage
		}
	}
	return sig, nil
}

// Dashboard

func (s *MemoryStore) CountTargets(ctx context.Context, workspaceID string) (int, error) {
	return s.countTargets(workspaceID, func(tg *model.SourcingTarget) bool { return true }), nil
}

func (s *MemoryStore) CountEngagedTargets(ctx context.Context, workspaceID string) (int, error) {
	return s.countTargets(workspaceID, func(tg *model.SourcingTarget) bool {
		return tg.Status != model.SourcingUntouched
	}), nil
}

func (s *MemoryStore) countTargets(workspaceID string, match func(*model.SourcingTarget) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tg := range s.targets {
		if tg.WorkspaceID == workspaceID && match(tg) {
			count++
		}
	}
	return count
}

func (s *MemoryStore) CountActiveDeals(ctx context.Context, workspaceID string) (int, error) {
	return s.countDeals(workspaceID, func(d *model.Deal) bool { return true }), nil
}

func (s *MemoryStore) CountDealsAtOrBeyond(ctx context.Context, workspaceID string, stage model.DealStage) (int, error) {
	return s.countDeals(workspaceID, func(d *model.Deal) bool {
		return d.Stage.AtLeast(stage)
	}), nil
}

func (s *MemoryStore) countDeals(workspaceID string, match func(*model.Deal) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, d := range s.deals {
		if d.WorkspaceID == workspaceID && d.Status == model.DealActive && match(d) {
			count++
		}
	}
	return count
}
