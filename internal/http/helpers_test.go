package http_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/coursecraft/coursecraft-api/internal/domain"
	"github.com/coursecraft/coursecraft-api/internal/export"
	api "github.com/coursecraft/coursecraft-api/internal/http"
	"github.com/coursecraft/coursecraft-api/internal/oauth"
	"github.com/coursecraft/coursecraft-api/internal/queue"
)

// memStore implements api.UserStore with real-database semantics: unique
// emails, copies in and out, expiry-checked token lookups.
type memStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	cp := *u
	if u.ResetTokenExpire != nil {
		v := *u.ResetTokenExpire
		cp.ResetTokenExpire = &v
	}
	if u.VerifyTokenExpire != nil {
		v := *u.VerifyTokenExpire
		cp.VerifyTokenExpire = &v
	}
	return &cp
}

func (s *memStore) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.users {
		if e.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID.Hex()] = clone(u)
	return nil
}

func (s *memStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return clone(u), nil
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) FindUserByGoogleID(_ context.Context, sub string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.GoogleID != "" && u.GoogleID == sub {
			return clone(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) FindUserByResetToken(_ context.Context, hashed string, now time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetToken == hashed && u.ResetTokenExpire != nil && u.ResetTokenExpire.After(now) {
			return clone(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) FindUserByVerifyToken(_ context.Context, hashed string, now time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.VerifyToken == hashed && u.VerifyTokenExpire != nil && u.VerifyTokenExpire.After(now) {
			return clone(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) UpdateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID.Hex()]; !ok {
		return domain.ErrNotFound
	}
	for id, e := range s.users {
		if id != u.ID.Hex() && e.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	s.users[u.ID.Hex()] = clone(u)
	return nil
}

func (s *memStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *clone(u))
	}
	return out, nil
}

func (s *memStore) Ping(_ context.Context) error { return nil }

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return m.sent[len(m.sent)-1]
}

var oneTimeTokenRe = regexp.MustCompile(`/(?:verifyemail|resetpassword)/([0-9a-f]{40})`)

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	mm := m.last(t)
	match := oneTimeTokenRe.FindStringSubmatch(mm.Body)
	if len(match) != 2 {
		t.Fatalf("no one-time token in mail body: %s", mm.Body)
	}
	return match[1]
}

type fakeGenerator struct {
	content string
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.content, nil
}

type testEnv struct {
	T         *testing.T
	Store     *memStore
	Mail      *captureMailer
	Gen       *fakeGenerator
	Exporter  *export.Exporter
	Handler   *api.Handler
	Router    *gin.Engine
	GoogleKey *rsa.PrivateKey
}

// googleSigningKey plays the part of Google's signing key; each test env
// serves its public half over a local JWKS endpoint.
var googleSigningKey = func() *rsa.PrivateKey {
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return k
}()

func jwksHandler(pub *rsa.PublicKey) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "test-kid",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	mailer := &captureMailer{}
	gen := &fakeGenerator{content: "Generated course content.\n\nLearning objectives: testing."}

	exporter, err := export.New(t.TempDir())
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}

	jwks := httptest.NewServer(jwksHandler(&googleSigningKey.PublicKey))
	t.Cleanup(jwks.Close)
	google := oauth.NewGoogle("client-id", "client-secret", "http://localhost/cb", "state-secret")
	google.SetCertsURL(jwks.URL)

	h := api.NewHandler(store, mailer, google, gen, exporter, queue.NewNoop(),
		"test.events", "test-secret", 30, 30,
		false, "http://localhost:5173", 5*time.Second, true)
	r := api.NewRouter(h, api.NewMemoryLimiter(1000, time.Minute), "")

	return &testEnv{
		T: t, Store: store, Mail: mailer, Gen: gen,
		Exporter: exporter, Handler: h, Router: r,
		GoogleKey: googleSigningKey,
	}
}

func (env *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	env.T.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	env.Router.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
