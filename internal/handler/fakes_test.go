package handler

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cactilog/internal/model"
	"github.com/iliyamo/cactilog/internal/repository"
	"github.com/iliyamo/cactilog/internal/wikimedia"
)

// memDB is an in-memory stand-in for the database shared by the fake
// stores below.  Every write advances the clock by one second.
type memDB struct {
	mu     sync.Mutex
	seq    int64
	clock  time.Time
	plants map[int64]*model.Plant
	growth map[int64]*model.GrowthRecord
	photos map[int64]*model.PlantPhoto
	seeds  map[int64]*model.Seed
}

func newMemDB() *memDB {
	return &memDB{
		clock:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		plants: map[int64]*model.Plant{},
		growth: map[int64]*model.GrowthRecord{},
		photos: map[int64]*model.PlantPhoto{},
		seeds:  map[int64]*model.Seed{},
	}
}

func (m *memDB) next() (int64, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Second)
	return m.seq, m.clock
}

func (m *memDB) owns(plantID int64, userID string) bool {
	p, ok := m.plants[plantID]
	return ok && p.UserID == userID
}

type fakePlants struct{ *memDB }

func (f fakePlants) List(_ context.Context, userID string, flt model.PlantFilter) ([]model.Plant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Plant{}
	for _, p := range f.plants {
		if p.UserID != userID {
			continue
		}
		if flt.Type != "" && p.Type != flt.Type {
			continue
		}
		if flt.Genus != "" && p.Genus != flt.Genus {
			continue
		}
		if flt.Search != "" && !strings.Contains(strings.ToLower(p.Genus), strings.ToLower(flt.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakePlants) ListPublic(_ context.Context, limit uint64) ([]model.PublicPlant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.PublicPlant{}
	for _, p := range f.plants {
		if p.IsPublic != model.VisibilityPublic {
			continue
		}
		out = append(out, model.PublicPlant{ID: p.ID, Type: p.Type, Genus: p.Genus, CreatedAt: p.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakePlants) GetByIDAndOwner(_ context.Context, id int64, userID string) (*model.Plant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.owns(id, userID) {
		return nil, repository.ErrNotFound
	}
	cp := *f.plants[id]
	return &cp, nil
}

func (f fakePlants) Create(_ context.Context, p *model.Plant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID, p.CreatedAt = f.next()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.plants[p.ID] = &cp
	return nil
}

func (f fakePlants) Update(_ context.Context, id int64, userID string, patch model.PlantPatch) (*model.Plant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.owns(id, userID) {
		return nil, repository.ErrNotFound
	}
	p := f.plants[id]
	fields := map[string]**string{
		"custom_id": &p.CustomID, "species": &p.Species, "cultivar": &p.Cultivar,
		"mutation": &p.Mutation, "common_name": &p.CommonName, "supplier": &p.Supplier,
		"acquisition_date": &p.AcquisitionDate, "initial_type": &p.InitialType, "notes": &p.Notes,
	}
	for col, v := range patch.Columns() {
		s, _ := v.(string)
		switch col {
		case "type":
			p.Type = s
		case "genus":
			p.Genus = s
		case "is_public":
			p.IsPublic = s
		default:
			if v == nil {
				*fields[col] = nil
			} else {
				*fields[col] = &s
			}
		}
	}
	_, p.UpdatedAt = f.next()
	cp := *p
	return &cp, nil
}

func (f fakePlants) Delete(_ context.Context, id int64, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.owns(id, userID) {
		return false, nil
	}
	delete(f.plants, id)
	for gid, g := range f.growth {
		if g.PlantID == id {
			delete(f.growth, gid)
		}
	}
	for pid, ph := range f.photos {
		if ph.PlantID == id {
			delete(f.photos, pid)
		}
	}
	return true, nil
}

type fakeGrowth struct{ *memDB }

func (f fakeGrowth) ListByPlant(_ context.Context, plantID int64, userID string) ([]model.GrowthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.GrowthRecord{}
	if !f.owns(plantID, userID) {
		return out, nil
	}
	for _, g := range f.growth {
		if g.PlantID == plantID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f fakeGrowth) ListByUser(_ context.Context, userID string) ([]model.GrowthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.GrowthRecord{}
	for _, g := range f.growth {
		if f.owns(g.PlantID, userID) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f fakeGrowth) Create(_ context.Context, rec *model.GrowthRecord, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.owns(rec.PlantID, userID) {
		return repository.ErrNotFound
	}
	rec.ID, rec.CreatedAt = f.next()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	f.growth[rec.ID] = &cp
	return nil
}

func (f fakeGrowth) Update(_ context.Context, id int64, userID string, patch model.GrowthRecordPatch) (*model.GrowthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.growth[id]
	if !ok || !f.owns(g.PlantID, userID) {
		return nil, repository.ErrNotFound
	}
	if patch.Observations.Set {
		g.Observations = patch.Observations.Ptr()
	}
	if patch.HeightInches.Set {
		g.HeightInches = patch.HeightInches.Value
	}
	_, g.UpdatedAt = f.next()
	cp := *g
	return &cp, nil
}

func (f fakeGrowth) Delete(_ context.Context, id int64, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.growth[id]
	if !ok || !f.owns(g.PlantID, userID) {
		return false, nil
	}
	delete(f.growth, id)
	return true, nil
}

type fakePhotos struct{ *memDB }

func (f fakePhotos) ListByPlant(_ context.Context, plantID int64, userID string) ([]model.PlantPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.PlantPhoto{}
	if !f.owns(plantID, userID) {
		return out, nil
	}
	for _, ph := range f.photos {
		if ph.PlantID == plantID {
			out = append(out, *ph)
		}
	}
	return out, nil
}

func (f fakePhotos) Create(_ context.Context, p *model.PlantPhoto) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID, p.UploadedAt = f.next()
	p.WithURL()
	cp := *p
	f.photos[p.ID] = &cp
	return nil
}

func (f fakePhotos) GetByIDAndOwner(_ context.Context, id int64, userID string) (*model.PlantPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ph, ok := f.photos[id]
	if !ok || !f.owns(ph.PlantID, userID) {
		return nil, repository.ErrNotFound
	}
	cp := *ph
	return &cp, nil
}

func (f fakePhotos) Delete(_ context.Context, id int64, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ph, ok := f.photos[id]
	if !ok || !f.owns(ph.PlantID, userID) {
		return false, nil
	}
	delete(f.photos, id)
	return true, nil
}

type fakeSeeds struct{ *memDB }

func (f fakeSeeds) List(_ context.Context, userID, search string) ([]model.Seed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Seed{}
	for _, s := range f.seeds {
		if s.UserID != userID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Genus), strings.ToLower(search)) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f fakeSeeds) GetByIDAndOwner(_ context.Context, id int64, userID string) (*model.Seed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seeds[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f fakeSeeds) Create(_ context.Context, s *model.Seed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID, s.CreatedAt = f.next()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	f.seeds[s.ID] = &cp
	return nil
}

func (f fakeSeeds) Update(_ context.Context, id int64, userID string, patch model.SeedPatch) (*model.Seed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seeds[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if patch.Genus.Set {
		s.Genus = patch.Genus.Value
	}
	if patch.Quantity.Set {
		s.Quantity = patch.Quantity.Ptr()
	}
	if patch.Notes.Set {
		s.Notes = patch.Notes.Ptr()
	}
	_, s.UpdatedAt = f.next()
	cp := *s
	return &cp, nil
}

func (f fakeSeeds) Delete(_ context.Context, id int64, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.seeds[id]
	if !ok || s.UserID != userID {
		return false, nil
	}
	delete(f.seeds, id)
	return true, nil
}

type fakeStats struct {
	stats   model.DashboardStats
	gotUser string
	gotNow  time.Time
}

func (f *fakeStats) Stats(_ context.Context, userID string, now time.Time) (model.DashboardStats, error) {
	f.gotUser, f.gotNow = userID, now
	return f.stats, nil
}

type fakeImages struct {
	imgs []wikimedia.Image
	err  error
}

func (f fakeImages) SearchGenus(_ context.Context, _ string, limit int) ([]wikimedia.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.imgs) > limit {
		return f.imgs[:limit], nil
	}
	return f.imgs, nil
}

// fakeUsers keeps users and local credentials keyed by id and email.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
	creds map[string]*repository.LocalCredential
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*model.User{}, creds: map[string]*repository.LocalCredential{}}
}

func (f *fakeUsers) Upsert(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) RegisterLocal(_ context.Context, u *model.User, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.creds[*u.Email]; ok {
		return repository.ErrEmailExists
	}
	cp := *u
	f.users[u.ID] = &cp
	f.creds[*u.Email] = &repository.LocalCredential{Email: *u.Email, UserID: u.ID, PasswordHash: hash}
	return nil
}

func (f *fakeUsers) GetCredential(_ context.Context, email string) (*repository.LocalCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creds[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type refreshRow struct {
	userID  string
	exp     time.Time
	revoked bool
}

type fakeTokens struct {
	mu   sync.Mutex
	rows map[string]*refreshRow
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*refreshRow{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[hash] = &refreshRow{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) ConsumeRefresh(_ context.Context, hash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[hash]
	if !ok || r.revoked || time.Now().After(r.exp) {
		return "", repository.ErrNotFound
	}
	r.revoked = true
	return r.userID, nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.userID == userID {
			r.revoked = true
		}
	}
	return nil
}

func (f *fakeTokens) active(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.userID == userID && !r.revoked {
			n++
		}
	}
	return n
}
