package routehandlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/datastore"
	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// --- users ---

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", sql.ErrNoRows)
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return datastore.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return datastore.ErrDuplicateEmail
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetUserByLogin(_ context.Context, identifier string) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return u.Username == identifier || u.Email == strings.ToLower(identifier)
	})
}

func (m *memUsers) update(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	fn(u)
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return m.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, phone, email *string) error {
	if email != nil {
		if other, err := m.GetUserByEmail(context.Background(), *email); err == nil && other.ID != id {
			return datastore.ErrDuplicateEmail
		}
	}
	return m.update(id, func(u *models.User) {
		if phone != nil {
			u.Phone = phone
		}
		if email != nil {
			u.Email = *email
		}
	})
}

func (m *memUsers) SetBanned(_ context.Context, id string, banned bool, reason *string) error {
	return m.update(id, func(u *models.User) {
		u.IsBanned = banned
		u.BanReason = reason
	})
}

func (m *memUsers) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	return m.update(id, func(u *models.User) { u.IsAdmin = isAdmin })
}

func (m *memUsers) ListUsersWithStats(_ context.Context, _ string, page models.PageRequest) ([]models.UserWithStats, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.UserWithStats{}
	for _, u := range m.users {
		out = append(out, models.UserWithStats{User: *u})
	}
	return out, len(out), nil
}

// --- products ---

type memProducts struct {
	mu       sync.Mutex
	products []*models.Product
}

func (m *memProducts) ListProducts(_ context.Context, f models.ProductFilter, page models.PageRequest) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Product
	for _, p := range m.products {
		if f.Active != nil && p.IsActive != *f.Active {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.SellerID != "" && p.SellerID != f.SellerID {
			continue
		}
		matched = append(matched, *p)
	}
	start := min(page.Offset(), len(matched))
	end := min(start+page.PerPage, len(matched))
	return matched[start:end], len(matched), nil
}

func (m *memProducts) ListSellerProducts(_ context.Context, sellerID string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if p.SellerID == sellerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("product not found: %w", sql.ErrNoRows)
}

func (m *memProducts) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products = append(m.products, &cp)
	return nil
}

func (m *memProducts) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.products {
		if existing.ID == p.ID {
			cp := *p
			m.products[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("product not found: %w", sql.ErrNoRows)
}

func (m *memProducts) SetProductActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			p.IsActive = active
			return nil
		}
	}
	return fmt.Errorf("product not found: %w", sql.ErrNoRows)
}

// --- images ---

type memImageRecords struct {
	addErr  error
	records []models.ProductImage
}

func (m *memImageRecords) AddImage(_ context.Context, productID, key, url string) (*models.ProductImage, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	primary := true
	for _, rec := range m.records {
		if rec.ProductID == productID {
			primary = false
		}
	}
	img := models.ProductImage{ID: uuid.NewString(), ProductID: productID, StorageKey: key, URL: url, IsPrimary: primary, CreatedAt: time.Now()}
	m.records = append(m.records, img)
	return &img, nil
}

func (m *memImageRecords) DeleteImage(_ context.Context, productID, imageID string) (*models.ProductImage, error) {
	for i, rec := range m.records {
		if rec.ID == imageID && rec.ProductID == productID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("product image not found: %w", sql.ErrNoRows)
}

type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (s *memObjectStore) Save(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "/uploads/" + key, nil
}

func (s *memObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memObjectStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type countingObserver struct {
	results []string
}

func (o *countingObserver) ObserveUpload(result string) {
	o.results = append(o.results, result)
}

// --- digital products ---

type memDigitalProducts struct {
	products map[string]*models.DigitalProduct
}

func (m *memDigitalProducts) ListDigitalProducts(_ context.Context, f models.DigitalProductFilter, page models.PageRequest) ([]models.DigitalProduct, int, error) {
	out := []models.DigitalProduct{}
	for _, p := range m.products {
		if f.Active != nil && p.IsActive != *f.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memDigitalProducts) GetDigitalProduct(_ context.Context, id string) (*models.DigitalProduct, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("digital product not found: %w", sql.ErrNoRows)
	}
	cp := *p
	return &cp, nil
}

func (m *memDigitalProducts) CreateDigitalProduct(_ context.Context, p *models.DigitalProduct) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memDigitalProducts) UpdateDigitalProduct(_ context.Context, p *models.DigitalProduct) error {
	if _, ok := m.products[p.ID]; !ok {
		return fmt.Errorf("digital product not found: %w", sql.ErrNoRows)
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memDigitalProducts) DeactivateDigitalProduct(_ context.Context, id string) error {
	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("digital product not found: %w", sql.ErrNoRows)
	}
	p.IsActive = false
	return nil
}

// --- request helpers ---

func newUser(username string, admin bool) *models.User {
	return &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		IsAdmin:  admin,
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(webutil.HeaderContentType, "application/json")
	return req
}

func asUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), u, nil))
}

func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func serve(h webutil.AppHandler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	webutil.MakeHandler(h).ServeHTTP(rec, r)
	return rec
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
