package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chest-rewards-api/internal/chest"
	"chest-rewards-api/internal/database"
	"chest-rewards-api/internal/features"
	"chest-rewards-api/internal/models"
	"chest-rewards-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type testEnv struct {
	router     *chi.Mux
	aliceToken string
	rootToken  string
}

func gemsCatalog() chest.Catalog {
	return chest.Catalog{
		Rewards: []models.RewardDefinition{
			{ID: "G_1K", Icon: "💎", Name: "1,000 Gems", Category: models.CategoryGems, Amount: 1000, ChancePct: 1},
		},
		JackpotMaxGems: chest.DefaultJackpotMaxGems,
	}
}

func hugeCatalog() chest.Catalog {
	return chest.Catalog{
		Rewards: []models.RewardDefinition{
			{ID: "HUGE", Icon: "🔥", Name: "Huge", Category: models.CategoryHuge, Amount: 1, ChancePct: 1},
		},
		JackpotMaxGems: chest.DefaultJackpotMaxGems,
	}
}

func setupTestHandler(t *testing.T, catalog chest.Catalog, opts NewHandlerOptions) (*Handler, *service.Service, testEnv, func()) {
	return setupTestHandlerWithCost(t, catalog, chest.DefaultCostTokens, opts)
}

func setupTestHandlerWithCost(t *testing.T, catalog chest.Catalog, cost int64, opts NewHandlerOptions) (*Handler, *service.Service, testEnv, func()) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	dbPath := filepath.Join(t.TempDir(), "test_handler_"+time.Now().Format("20060102150405")+".db")
	db, err := database.NewSQLiteSnapshotter(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	ctx := context.Background()
	defaults := chest.DefaultSettings(catalog, cost, chest.DefaultPetValues())
	store, err := database.Open(ctx, db, defaults, log)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	env := testEnv{aliceToken: uuid.New().String(), rootToken: uuid.New().String()}
	seeds := []models.SeedUser{
		{Username: "alice", Token: env.aliceToken, Tokens: 5000},
		{Username: "root", Token: env.rootToken, AdminLevel: models.AdminSuper},
	}
	if err := store.Seed(ctx, seeds, time.Now()); err != nil {
		t.Fatalf("Failed to seed users: %v", err)
	}

	svc, err := service.NewService(store, service.Options{
		Defaults: chest.StockCatalog(),
		Engine:   chest.NewEngine(chest.NewSeededRNG(1)),
		Log:      log,
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	opts.Log = log
	h := NewHandlerWithOptions(svc, opts)
	env.router = setupRouter(h, svc)

	cleanup := func() {
		store.Close()
	}

	return h, svc, env, cleanup
}

func setupRouter(h *Handler, svc *service.Service) *chi.Mux {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRouter(h, svc, RouterOptions{Log: log})
}

func doRequest(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var response models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal error response: %v", err)
	}
	return response.Error
}

func TestHealthCheck(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "GET", "/health", "", "")

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	if rr.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", rr.Body.String())
	}
}

func TestState_RequiresToken(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "GET", "/chest/state", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != "Missing token" {
		t.Errorf("Expected 'Missing token', got '%s'", msg)
	}

	rr = doRequest(env.router, "GET", "/chest/state", uuid.New().String(), "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for unknown token, got %d", rr.Code)
	}
}

func TestState_Success(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "GET", "/chest/state", env.aliceToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var state models.ChestState
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if state.Chest.CostTokens != 500 {
		t.Errorf("Expected cost 500, got %d", state.Chest.CostTokens)
	}
	if state.Tokens != 5000 {
		t.Errorf("Expected 5000 tokens, got %d", state.Tokens)
	}
	if len(state.Chest.Rewards) != 1 || state.Chest.Rewards[0].Category != models.CategoryGems {
		t.Errorf("Unexpected rewards: %+v", state.Chest.Rewards)
	}
}

func TestOpen_Success(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/chest/open", env.aliceToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var res models.OpenResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if res.NewTokens != 4500 || res.NewBalance != 1000 {
		t.Errorf("Unexpected wallet: tokens=%d balance=%d", res.NewTokens, res.NewBalance)
	}

	rr = doRequest(env.router, "GET", "/chest/feed", env.aliceToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var feed struct {
		Feed []models.FeedItem `json:"feed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &feed); err != nil {
		t.Fatalf("Failed to unmarshal feed: %v", err)
	}
	if len(feed.Feed) != 1 || feed.Feed[0].User != "alice" {
		t.Errorf("Unexpected feed: %+v", feed.Feed)
	}
}

func TestOpen_InsufficientTokens(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/chest/open", env.rootToken, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != "Not enough 🍥 tokens. Need 500." {
		t.Errorf("Unexpected error '%s'", msg)
	}
}

func TestOpen_MisconfiguredCost(t *testing.T) {
	_, _, env, cleanup := setupTestHandlerWithCost(t, gemsCatalog(), -1, DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/chest/open", env.aliceToken, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != "Chest cost misconfigured." {
		t.Errorf("Unexpected error '%s'", msg)
	}
}

func TestOpenMulti_CountAliases(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	for _, body := range []string{`{"count": 2}`, `{"amount": "2"}`, `{"opens": 2.7}`} {
		rr := doRequest(env.router, "POST", "/chest/open-multi", env.aliceToken, body)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200 for %s, got %d. Body: %s", body, rr.Code, rr.Body.String())
		}
		var res models.MultiOpenResult
		if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if res.CountOpened != 2 || len(res.Results) != 2 {
			t.Errorf("Expected 2 opens for %s, got %d", body, res.CountOpened)
		}
	}
}

func TestOpenMulti_StopsOnTokens(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/chest/open-multi", env.aliceToken, `{"n": 25}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var res models.MultiOpenResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if res.CountRequested != 25 || res.CountOpened != 10 {
		t.Errorf("Unexpected counts: requested=%d opened=%d", res.CountRequested, res.CountOpened)
	}
	if res.StoppedReason != "insufficient_tokens" {
		t.Errorf("Expected insufficient_tokens, got '%s'", res.StoppedReason)
	}
}

func TestOpenMulti_InvalidBody(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/chest/open-multi", env.aliceToken, "invalid json")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	rr = doRequest(env.router, "POST", "/chest/open-multi", env.aliceToken, `{"count": "lots"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != "count must be > 0" {
		t.Errorf("Unexpected error '%s'", msg)
	}
}

func TestAdmin_ForbiddenForPlayers(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/admin/chest/boost", env.aliceToken, `{"durationMinutes": 10}`)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rr.Code)
	}
}

func TestSetBoost(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/admin/chest/boost", env.rootToken, `{"globalMultiplier": 2, "durationMinutes": 0}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != "durationMinutes must be 1-1440" {
		t.Errorf("Unexpected error '%s'", msg)
	}

	rr = doRequest(env.router, "POST", "/admin/chest/boost", env.rootToken,
		`{"globalMultiplier": "2", "hugeChanceBonus": -1, "tokenBonus": 100, "durationMinutes": 15}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Boosts models.BoostState `json:"boosts"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !resp.Boosts.Active || resp.Boosts.GlobalMultiplier != 2 || resp.Boosts.HugeChanceBonus != 0 || resp.Boosts.TokenBonus != 100 {
		t.Errorf("Unexpected boost: %+v", resp.Boosts)
	}

	rr = doRequest(env.router, "POST", "/chest/open", env.aliceToken, "")
	var res models.OpenResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if res.Reward.Amount != 2000 {
		t.Errorf("Expected boosted payout 2000, got %d", res.Reward.Amount)
	}
}

func TestSetPetValues(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/admin/chest/pet-values", env.rootToken, `{"hugeToGems": 1000, "titanicToGems": -5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp struct {
		PetValues models.PetValueTable `json:"petValues"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.PetValues.HugeToGems != 1000 || resp.PetValues.TitanicToGems != chest.DefaultTitanicToGems {
		t.Errorf("Unexpected pet values: %+v", resp.PetValues)
	}
}

func TestResetRewards(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/admin/chest/reset-rewards", env.rootToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var res models.ResetResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(res.Rewards) != len(chest.DefaultCatalog()) {
		t.Errorf("Expected %d rewards, got %d", len(chest.DefaultCatalog()), len(res.Rewards))
	}
}

func TestInventoryFlow(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, hugeCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/chest/open", env.aliceToken, "")
	var opened models.OpenResult
	if err := json.Unmarshal(rr.Body.Bytes(), &opened); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if opened.InvItem == nil {
		t.Fatalf("Expected a pet drop, got %s", rr.Body.String())
	}
	petID := opened.InvItem.ID

	rr = doRequest(env.router, "GET", "/inventory/", env.aliceToken, "")
	var inv struct {
		Pets []models.InventoryItem `json:"pets"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &inv); err != nil {
		t.Fatalf("Failed to unmarshal inventory: %v", err)
	}
	if len(inv.Pets) != 1 || inv.Pets[0].ID != petID {
		t.Fatalf("Unexpected inventory: %+v", inv.Pets)
	}

	rr = doRequest(env.router, "POST", "/inventory/claim", env.aliceToken, `{}`)
	if rr.Code != http.StatusBadRequest || errorMessage(t, rr) != "Missing id" {
		t.Errorf("Expected 400 'Missing id', got %d", rr.Code)
	}

	rr = doRequest(env.router, "POST", "/inventory/claim", env.aliceToken, `{"id": "PET_doesnotexist"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	rr = doRequest(env.router, "POST", "/inventory/claim", env.aliceToken, `{"id": "`+petID+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(env.router, "POST", "/inventory/claim", env.aliceToken, `{"id": "`+petID+`"}`)
	if rr.Code != http.StatusBadRequest || errorMessage(t, rr) != "Already handled" {
		t.Errorf("Expected 400 'Already handled', got %d", rr.Code)
	}

	rr = doRequest(env.router, "POST", "/inventory/convert", env.aliceToken, `{"type": "huge", "count": 1}`)
	if rr.Code != http.StatusBadRequest || errorMessage(t, rr) != "No stored huge pets to convert" {
		t.Errorf("Expected 400 'No stored huge pets to convert', got %d", rr.Code)
	}
}

func TestConvert(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, hugeCatalog(), DefaultHandlerOptions())
	defer cleanup()

	var ids []string
	for range 3 {
		rr := doRequest(env.router, "POST", "/chest/open", env.aliceToken, "")
		var opened models.OpenResult
		if err := json.Unmarshal(rr.Body.Bytes(), &opened); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		ids = append(ids, opened.InvItem.ID)
	}

	rr := doRequest(env.router, "POST", "/inventory/convert", env.aliceToken, `{"id": "`+ids[0]+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var one models.ConvertResult
	if err := json.Unmarshal(rr.Body.Bytes(), &one); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if one.Mode != "id" || one.Total != chest.DefaultHugeToGems || one.Item == nil {
		t.Errorf("Unexpected result: %+v", one)
	}

	rr = doRequest(env.router, "POST", "/inventory/convert", env.aliceToken, `{"type": "huge"}`)
	if rr.Code != http.StatusBadRequest || errorMessage(t, rr) != "Missing/invalid count" {
		t.Errorf("Expected 400 'Missing/invalid count', got %d", rr.Code)
	}

	body := `{"ids": ["` + ids[0] + `", "` + ids[1] + `", "bogus", "` + ids[2] + `"]}`
	rr = doRequest(env.router, "POST", "/inventory/convert-many", env.aliceToken, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var many models.ConvertResult
	if err := json.Unmarshal(rr.Body.Bytes(), &many); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if many.Mode != "ids" || many.Converted != 2 {
		t.Errorf("Unexpected result: %+v", many)
	}
	if many.NewBalance != 3*chest.DefaultHugeToGems {
		t.Errorf("Expected balance %d, got %d", 3*chest.DefaultHugeToGems, many.NewBalance)
	}

	rr = doRequest(env.router, "POST", "/inventory/convert-many", env.aliceToken, `{"ids": []}`)
	if rr.Code != http.StatusBadRequest || errorMessage(t, rr) != "Missing ids" {
		t.Errorf("Expected 400 'Missing ids', got %d", rr.Code)
	}
}

func TestClaim_UnknownIDShapes(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, hugeCatalog(), DefaultHandlerOptions())
	defer cleanup()

	for _, id := range []string{"nope", "PET_", "42"} {
		rr := doRequest(env.router, "POST", "/inventory/claim", env.aliceToken, `{"id": "`+id+`"}`)
		if rr.Code != http.StatusNotFound {
			t.Errorf("claim %q: expected status 404, got %d", id, rr.Code)
			continue
		}
		if msg := errorMessage(t, rr); msg != "Not found" {
			t.Errorf("claim %q: expected 'Not found', got %q", id, msg)
		}
	}

	rr := doRequest(env.router, "POST", "/inventory/convert", env.aliceToken, `{"id": "nope"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("convert: expected status 404, got %d", rr.Code)
	}
}

func TestConvertMany_SkipsStaleIDsBeyondInventorySize(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, hugeCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/chest/open", env.aliceToken, "")
	var opened models.OpenResult
	if err := json.Unmarshal(rr.Body.Bytes(), &opened); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if opened.InvItem == nil {
		t.Fatalf("Expected a pet drop, got %s", rr.Body.String())
	}

	ids := []string{opened.InvItem.ID}
	for i := range models.InventoryCap + 50 {
		ids = append(ids, fmt.Sprintf("PET_stale%d", i))
	}
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}

	rr = doRequest(env.router, "POST", "/inventory/convert-many", env.aliceToken, string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var res models.ConvertResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if res.Converted != 1 || res.Total != chest.DefaultHugeToGems {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestFeatures(t *testing.T) {
	_, svc, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "GET", "/admin/features", env.rootToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var list struct {
		Features []features.FeatureFlag `json:"features"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(list.Features) != 4 {
		t.Errorf("Expected 4 flags, got %d", len(list.Features))
	}

	rr = doRequest(env.router, "POST", "/admin/features", env.rootToken, `{"name": "multi_open", "enabled": false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if svc.Features().IsEnabled(features.MultiOpen) {
		t.Errorf("Expected multi_open to be disabled")
	}

	rr = doRequest(env.router, "POST", "/chest/open-multi", env.aliceToken, `{"count": 1}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rr.Code)
	}

	rr = doRequest(env.router, "POST", "/admin/features", env.rootToken, `{"name": "time_travel", "enabled": true}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), NewHandlerOptions{MaxBodySize: 16})
	defer cleanup()

	body := `{"ids": ["` + strings.Repeat("x", 64) + `"]}`
	rr := doRequest(env.router, "POST", "/inventory/convert-many", env.aliceToken, body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rr.Code)
	}
}

func TestRequiredBody(t *testing.T) {
	_, _, env, cleanup := setupTestHandler(t, gemsCatalog(), DefaultHandlerOptions())
	defer cleanup()

	rr := doRequest(env.router, "POST", "/inventory/convert", env.aliceToken, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}
