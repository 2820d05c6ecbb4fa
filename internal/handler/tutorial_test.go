package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spendwise/backend/internal/config"
	"github.com/spendwise/backend/internal/middleware"
	"github.com/spendwise/backend/internal/model"
	"github.com/spendwise/backend/internal/service"
	"github.com/spendwise/backend/internal/storetest"
)

// newTestApp wires the real services over an in-memory store behind a stub
// auth middleware that authenticates every request as the given user.
func newTestApp(t *testing.T, userID int64) (*fiber.App, *storetest.MemStore) {
	t.Helper()

	store := storetest.New()
	cfg := &config.Config{}
	h := New(
		cfg,
		service.NewUserService(store),
		service.NewTutorialService(store),
		service.NewCreditService(store),
		service.NewReferralService(store, "https://app.example.com"),
	)

	app := fiber.New()
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, userID)
		return c.Next()
	})
	api.Get("/tutorial", h.GetTutorialProgress)
	api.Post("/tutorial/complete-step", h.CompleteTutorialStep)
	api.Get("/credits", h.GetCredits)
	api.Post("/credits/consume", h.ConsumeCredit)

	return app, store
}

type testResponse struct {
	Code int
	Body []byte
}

func completeStep(t *testing.T, app *fiber.App, stepID string) testResponse {
	t.Helper()

	body, _ := json.Marshal(CompleteStepRequest{StepID: stepID})
	req := httptest.NewRequest("POST", "/api/tutorial/complete-step", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return testResponse{Code: resp.StatusCode, Body: data}
}

func TestCompleteStepEndpoint(t *testing.T) {
	app, store := newTestApp(t, 1)

	rec := completeStep(t, app, "create_wallet")
	if rec.Code != fiber.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, string(rec.Body))
	}

	var result model.CompleteStepResult
	if err := json.Unmarshal(rec.Body, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.AlreadyCompleted || result.CreditsAwarded != 10 {
		t.Errorf("result = %+v, want {false 10}", result)
	}

	balance, err := store.GetCreditBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.MessagesRemaining != 60 {
		t.Errorf("remaining = %d, want 60", balance.MessagesRemaining)
	}
}

func TestCompleteStepEndpointRepeatIsOK(t *testing.T) {
	app, _ := newTestApp(t, 1)

	if rec := completeStep(t, app, "view_chart"); rec.Code != fiber.StatusOK {
		t.Fatalf("first status = %d, want 200", rec.Code)
	}

	rec := completeStep(t, app, "view_chart")
	if rec.Code != fiber.StatusOK {
		t.Fatalf("repeat status = %d, want 200", rec.Code)
	}

	var result model.CompleteStepResult
	if err := json.Unmarshal(rec.Body, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !result.AlreadyCompleted || result.CreditsAwarded != 0 {
		t.Errorf("repeat result = %+v, want {true 0}", result)
	}
}

func TestCompleteStepEndpointInvalidStep(t *testing.T) {
	app, _ := newTestApp(t, 1)

	rec := completeStep(t, app, "nonexistent_step")
	if rec.Code != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] == "" {
		t.Error("error message missing")
	}
}

func TestCompleteStepEndpointMissingStepID(t *testing.T) {
	app, _ := newTestApp(t, 1)

	rec := completeStep(t, app, "")
	if rec.Code != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetTutorialProgressEndpoint(t *testing.T) {
	app, _ := newTestApp(t, 1)

	if rec := completeStep(t, app, "add_transaction"); rec.Code != fiber.StatusOK {
		t.Fatalf("complete status = %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/tutorial", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var progress model.TutorialProgress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if progress.CompletedSteps != 1 || progress.TotalSteps != 8 || progress.TotalCreditsEarned != 5 {
		t.Errorf("progress = %+v, want 1/8 steps, 5 credits", progress)
	}
}

func TestConsumeCreditEndpointInsufficient(t *testing.T) {
	app, store := newTestApp(t, 1)
	store.SeedBalance(1, 0, 50, 50)

	req := httptest.NewRequest("POST", "/api/credits/consume", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", resp.StatusCode)
	}
}
