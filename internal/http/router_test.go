package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"chiro-intake-api/internal/domain"
	"chiro-intake-api/internal/llm"
	"chiro-intake-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testIntakeRepo struct {
	items  map[int64]domain.Intake
	nextID int64
}

func newTestIntakeRepo() *testIntakeRepo {
	return &testIntakeRepo{items: make(map[int64]domain.Intake)}
}

func (r *testIntakeRepo) Create(_ context.Context, payload string) (domain.Intake, error) {
	r.nextID++
	intake := domain.Intake{ID: r.nextID, Payload: payload, CreatedAt: time.Now().UTC()}
	r.items[intake.ID] = intake
	return intake, nil
}

func (r *testIntakeRepo) GetByID(_ context.Context, id int64) (domain.Intake, error) {
	intake, ok := r.items[id]
	if !ok {
		return domain.Intake{}, pgx.ErrNoRows
	}
	return intake, nil
}

func (r *testIntakeRepo) GetByLinkToken(_ context.Context, token string) (domain.Intake, error) {
	for _, intake := range r.items {
		if intake.LineLinkToken != "" && intake.LineLinkToken == token {
			return intake, nil
		}
	}
	return domain.Intake{}, pgx.ErrNoRows
}

func (r *testIntakeRepo) ListAll(_ context.Context) ([]domain.Intake, error) {
	var result []domain.Intake
	for id := r.nextID; id >= 1; id-- {
		if intake, ok := r.items[id]; ok {
			result = append(result, intake)
		}
	}
	return result, nil
}

func (r *testIntakeRepo) SaveGeneratedTexts(_ context.Context, id int64, overview, lineDetail, linkToken string) error {
	intake, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	intake.OverviewText = overview
	intake.LineDetailText = lineDetail
	intake.LineLinkToken = linkToken
	r.items[id] = intake
	return nil
}

func (r *testIntakeRepo) MarkLineSent(_ context.Context, id int64, lineUserID string, sentAt time.Time) error {
	intake, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	intake.LineUserID = lineUserID
	intake.LineSentAt = &sentAt
	r.items[id] = intake
	return nil
}

type testLineSender struct {
	pushed []string
	to     []string
}

func (s *testLineSender) PushText(_ context.Context, lineUserID, text string) error {
	s.to = append(s.to, lineUserID)
	s.pushed = append(s.pushed, text)
	return nil
}

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "s3cret-pass"
)

type testServer struct {
	router *gin.Engine
	repo   *testIntakeRepo
	sender *testLineSender
	jwt    *service.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithSecret(t, "test-secret")
}

func newTestServerWithSecret(t *testing.T, jwtSecret string) *testServer {
	t.Helper()

	logger := zap.NewNop()
	repo := newTestIntakeRepo()
	sender := &testLineSender{}

	aiTexts := service.NewAITextService(logger, &llm.MockClient{Response: strings.Repeat("あ", 400)}, service.NewMemoryMonthlyBudget(service.LLMCostPerCallYen, 10000))
	intakeSvc := service.NewIntakeService(logger, repo, aiTexts, true)
	linkSvc := service.NewLinkService(logger, repo, sender, service.NewMemoryMonthlyBudget(service.LineCostPerMessageYen, 10000), true)

	jwtSvc := service.NewJWTService(jwtSecret, time.Minute, time.Hour)
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	authSvc := service.NewAdminAuthService(logger, testAdminEmail, string(hash), jwtSvc)

	router := NewRouter(
		logger,
		[]string{"http://localhost:3000"},
		NewIntakeHandler(logger, intakeSvc),
		NewAdminHandler(logger, intakeSvc, linkSvc),
		NewWebhookHandler(logger, linkSvc),
		NewAuthHandler(logger, authSvc),
		jwtSvc,
		func(_ context.Context) error { return nil },
	)

	return &testServer{router: router, repo: repo, sender: sender, jwt: jwtSvc}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) accessToken(t *testing.T) string {
	t.Helper()
	pair, err := s.jwt.GeneratePair(testAdminEmail)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}
	return pair.AccessToken
}

func (s *testServer) authHeader(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + s.accessToken(t)}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t)

	t.Run("allowed origin gets headers", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/healthz", "", map[string]string{"Origin": "http://localhost:3000"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Fatalf("expected allow-origin echo, got %q", got)
		}
	})

	t.Run("unknown origin gets nothing", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/healthz", "", map[string]string{"Origin": "http://evil.example.com"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("expected no allow-origin, got %q", got)
		}
	})

	t.Run("preflight returns 204", func(t *testing.T) {
		w := srv.do(t, http.MethodOptions, "/api/intake", "", map[string]string{"Origin": "http://localhost:3000"})
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204 for preflight, got %d", w.Code)
		}
	})
}
