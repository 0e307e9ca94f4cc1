package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/handler"
	"github.com/boddenberg/jjr-ops-go/internal/infra/cache"
	"github.com/boddenberg/jjr-ops-go/internal/infra/memory"
	"github.com/boddenberg/jjr-ops-go/internal/infra/observability"
	"github.com/boddenberg/jjr-ops-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sigPNG = "data:image/png;base64,iVBORw0KGgo="

type testAPI struct {
	router http.Handler
	store  *memory.Store
	auth   *service.AuthService
}

func newTestAPI(t *testing.T, opts handler.Options) *testAPI {
	t.Helper()
	store := memory.New()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	jobs := service.NewJobsService(store, metrics, 14, logger)
	leads := service.NewLeadsService(store, logger)
	auth := service.NewAuthService(store, "test-secret", 15*time.Minute, time.Hour, logger)

	svc := handler.Services{
		Jobs:      jobs,
		Leads:     leads,
		Contracts: service.NewContractsService(store, jobs, nil, nil, metrics, logger),
		Reports:   service.NewReportsService(store, logger),
		Assistant: service.NewAssistant(store, nil, cache.New[*domain.CompletionResult](time.Minute), metrics, logger),
		Auth:      auth,
		SalesReps: service.NewSalesRepsService(store, cache.New[[]domain.SalesRep](time.Minute), metrics, logger),
		DevTools:  service.NewDevToolsService(leads, jobs, logger),
		Store:     store,
	}
	if opts.AssistantPerMinute == 0 {
		opts.AssistantPerMinute = 60
	}
	return &testAPI{
		router: handler.NewRouter(svc, opts, metrics, logger),
		store:  store,
		auth:   auth,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	rec := api.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[domain.HealthStatus](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, domain.StoreLocal, health.StoreMode)
	assert.Len(t, health.Services, 2)
}

func TestOperationalEndpoints(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	for _, path := range []string{"/readyz", "/metrics", "/ping", "/v1/metrics/assistant", "/v1/phases"} {
		rec := api.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	phases := decode[[]domain.Phase](t, api.do(t, http.MethodGet, "/v1/phases", nil))
	assert.Len(t, phases, 10)
}

func TestJobs_CreateAndEditFinancials(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	rec := api.do(t, http.MethodPost, "/v1/jobs", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	job := decode[domain.Job](t, rec)
	assert.Equal(t, fmt.Sprintf("JJR-%d-001", time.Now().Year()), job.JobNumber)
	assert.Equal(t, 1, job.PhaseTracking.CurrentPhase)

	path := "/v1/jobs/" + job.ID
	rec = api.do(t, http.MethodPatch, path+"/financials", map[string]any{"field": "insurance.rcvTotal", "value": 20000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPatch, path+"/financials", map[string]any{"section": "costs", "field": "materials", "value": "8000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	job = decode[domain.Job](t, rec)
	assert.InDelta(t, 20000, job.Financials.Insurance.RCVTotal, 0.001)
	assert.InDelta(t, 8000, job.Financials.Costs.Materials, 0.001)
	assert.InDelta(t, 12000, job.Financials.Profitability.GrossProfit, 0.001)

	rec = api.do(t, http.MethodPut, path+"/phase", map[string]int{"phase": 11})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPut, path+"/phase", map[string]int{"phase": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[domain.Job](t, rec).PhaseTracking.CurrentPhase)

	rec = api.do(t, http.MethodGet, "/v1/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[domain.ListResponse[domain.Job]](t, rec)
	assert.Equal(t, 1, list.Total)
}

func TestJobs_NotFound(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	rec := api.do(t, http.MethodGet, "/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSupplements_DeleteNeedsConfirmation(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	job := decode[domain.Job](t, api.do(t, http.MethodPost, "/v1/jobs", nil))

	rec := api.do(t, http.MethodPost, "/v1/jobs/"+job.ID+"/supplements", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	sup := decode[domain.Supplement](t, rec)

	supPath := "/v1/jobs/" + job.ID + "/supplements/" + sup.ID
	rec = api.do(t, http.MethodPatch, supPath, map[string]any{"field": "amountRequested", "value": 2000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPatch, supPath, map[string]any{"field": "amountApproved", "value": 1500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPatch, supPath, map[string]any{"field": "status", "value": "Approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Approved amounts not yet in insurance.supplementsTotal surface as a warning.
	rec = api.do(t, http.MethodGet, "/v1/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		SupplementTotals domain.SupplementSummary `json:"supplementTotals"`
		Warnings         []string                 `json:"warnings"`
	}](t, rec)
	assert.InDelta(t, 2000, got.SupplementTotals.Requested, 0.001)
	assert.InDelta(t, 1500, got.SupplementTotals.Approved, 0.001)
	assert.Len(t, got.Warnings, 1)

	rec = api.do(t, http.MethodDelete, supPath, nil)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = api.do(t, http.MethodDelete, supPath+"?confirm=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := api.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Supplements)
}

func TestLeads_Validation(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	rec := api.do(t, http.MethodPost, "/v1/leads", map[string]any{
		"customerInfo": map[string]string{"name": "Dana", "email": "not-an-email"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/leads", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	lead := decode[domain.Lead](t, rec)
	assert.Equal(t, domain.LeadNew, lead.Status)

	rec = api.do(t, http.MethodPut, "/v1/leads/"+lead.ID+"/status", map[string]string{"status": "converted"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeadToJobConversion(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	rec := api.do(t, http.MethodPost, "/v1/leads", map[string]any{
		"customerInfo": map[string]string{"name": "Dana Whitfield", "address": "12 Elm St", "email": "dana@example.com"},
		"assignedTo":   "Ian",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lead := decode[domain.Lead](t, rec)

	rec = api.do(t, http.MethodPost, "/v1/leads/"+lead.ID+"/contract", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	contract := decode[domain.Contract](t, rec)
	require.NotEmpty(t, contract.LineItems)

	cPath := "/v1/contracts/" + contract.ID
	rec = api.do(t, http.MethodPatch, cPath+"/line-items/"+contract.LineItems[0].ID, map[string]any{"field": "unitPrice", "value": 30000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 30000, decode[domain.Contract](t, rec).Details.TotalAmount, 0.001)

	// Drafts cannot be converted.
	rec = api.do(t, http.MethodPost, "/v1/leads/"+lead.ID+"/convert", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, cPath+"/signatures/company", map[string]string{"signerName": "Ian", "dataUrl": "not-an-image"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPut, cPath+"/signatures/company", map[string]string{"signerName": "Ian", "dataUrl": sigPNG})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPut, cPath+"/signatures/customer1", map[string]string{"signerName": "Dana Whitfield", "dataUrl": sigPNG})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.ContractSigned, decode[domain.Contract](t, rec).Status)

	rec = api.do(t, http.MethodPut, cPath+"/status", map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/leads/"+lead.ID+"/convert", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := decode[domain.Job](t, rec)
	assert.Equal(t, 6, job.PhaseTracking.CurrentPhase)
	assert.Equal(t, "Dana Whitfield", job.Client.Name)
	assert.InDelta(t, 30000, job.Financials.Insurance.RCVTotal, 0.001)

	rec = api.do(t, http.MethodPost, "/v1/leads/"+lead.ID+"/convert", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// PDF and email need their collaborators configured.
	assert.Equal(t, http.StatusServiceUnavailable, api.do(t, http.MethodGet, cPath+"/pdf", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, api.do(t, http.MethodPost, cPath+"/send", nil).Code)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t, handler.Options{})
	job := decode[domain.Job](t, api.do(t, http.MethodPost, "/v1/jobs", nil))
	api.do(t, http.MethodPatch, "/v1/jobs/"+job.ID+"/financials", map[string]any{"field": "insurance.rcvTotal", "value": 10000})

	rec := api.do(t, http.MethodGet, "/v1/reports/pnl", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pnl := decode[domain.ProfitAndLoss](t, rec)
	assert.InDelta(t, 10000, pnl.TotalRevenue, 0.001)

	rec = api.do(t, http.MethodGet, "/v1/reports/dashboard", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/reports/pnl.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/vnd.openxmlformats"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestAssistant_RateLimited(t *testing.T) {
	api := newTestAPI(t, handler.Options{AssistantPerMinute: 1})
	job := decode[domain.Job](t, api.do(t, http.MethodPost, "/v1/jobs", nil))
	path := "/v1/jobs/" + job.ID + "/assistant"

	// No completer is configured, so the allowed request reports 503.
	rec := api.do(t, http.MethodPost, path, map[string]string{"action": "analyze-health"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = api.do(t, http.MethodPost, path, map[string]string{"action": "analyze-health"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuth_Required(t *testing.T) {
	api := newTestAPI(t, handler.Options{AuthRequired: true})
	ctx := context.Background()

	rep, err := api.store.SaveSalesRep(ctx, &domain.SalesRep{Name: "Ian", Email: "ian@jjroofingpros.com", Active: true})
	require.NoError(t, err)
	require.NoError(t, api.auth.SetPassword(ctx, rep.ID, &domain.SetPasswordRequest{Password: "shingles-2025"}))

	rec := api.do(t, http.MethodGet, "/v1/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/jobs", nil, "Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "ian@jjroofingpros.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "ian@jjroofingpros.com", "password": "shingles-2025"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[domain.LoginResponse](t, rec)
	bearer := "Bearer " + login.AccessToken

	rec = api.do(t, http.MethodGet, "/v1/jobs", nil, "Authorization", bearer)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPut, "/v1/sales-reps/someone-else/password", map[string]string{"password": "long-enough"}, "Authorization", bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/logout", nil, "Authorization", bearer)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSalesReps_Endpoints(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	rec := api.do(t, http.MethodPost, "/v1/sales-reps", map[string]any{"name": "Ian", "email": "ian@jjroofingpros.com", "active": true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rep := decode[domain.SalesRep](t, rec)

	rec = api.do(t, http.MethodPost, "/v1/sales-reps", map[string]any{"name": "Copy", "email": "ian@jjroofingpros.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/sales-reps", map[string]any{"name": "No Email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/v1/sales-reps/"+rep.ID+"/password", map[string]string{"password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPut, "/v1/sales-reps/"+rep.ID+"/password", map[string]string{"password": "shingles-2025"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/sales-reps", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.SalesRep](t, rec), 1)
}

func TestDevSeed(t *testing.T) {
	api := newTestAPI(t, handler.Options{})

	rec := api.do(t, http.MethodPost, "/v1/dev/seed", map[string]int{"leads": 2, "jobs": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[domain.DevSeedResponse](t, rec)
	assert.Len(t, resp.LeadIDs, 2)
	assert.Len(t, resp.JobIDs, 1)

	rec = api.do(t, http.MethodPost, "/v1/dev/seed", map[string]int{"leads": 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
