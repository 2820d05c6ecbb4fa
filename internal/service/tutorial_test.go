package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spendwise/backend/internal/model"
	"github.com/spendwise/backend/internal/storetest"
)

func TestCompleteStepNewUser(t *testing.T) {
	store := storetest.New()
	svc := NewTutorialService(store)

	result, err := svc.CompleteStep(context.Background(), 1, model.StepCreateWallet)
	if err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	if result.AlreadyCompleted {
		t.Error("first completion reported as already completed")
	}
	if result.CreditsAwarded != 10 {
		t.Errorf("credits awarded = %d, want 10", result.CreditsAwarded)
	}

	// Baseline 50 plus the 10-credit reward.
	balance, err := store.GetCreditBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCreditBalance: %v", err)
	}
	if balance.MessagesRemaining != 60 || balance.TotalGranted != 60 {
		t.Errorf("balance = {remaining:%d granted:%d}, want {60 60}",
			balance.MessagesRemaining, balance.TotalGranted)
	}

	entries := store.Entries(1)
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.BalanceBefore != 50 || e.BalanceAfter != 60 || e.MessagesChange != 10 {
		t.Errorf("ledger entry = {before:%d after:%d change:%d}, want {50 60 10}",
			e.BalanceBefore, e.BalanceAfter, e.MessagesChange)
	}
	if e.Type != model.LedgerEntryTutorialReward {
		t.Errorf("ledger entry type = %q, want %q", e.Type, model.LedgerEntryTutorialReward)
	}
}

func TestCompleteStepExistingBalance(t *testing.T) {
	store := storetest.New()
	store.SeedBalance(1, 100, 100, 0)
	svc := NewTutorialService(store)

	result, err := svc.CompleteStep(context.Background(), 1, model.StepVoiceInput)
	if err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	if result.CreditsAwarded != 15 {
		t.Errorf("credits awarded = %d, want 15", result.CreditsAwarded)
	}

	balance, _ := store.GetCreditBalance(context.Background(), 1)
	if balance.MessagesRemaining != 115 || balance.TotalGranted != 115 {
		t.Errorf("balance = {remaining:%d granted:%d}, want {115 115}",
			balance.MessagesRemaining, balance.TotalGranted)
	}

	entries := store.Entries(1)
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	if entries[0].BalanceBefore != 100 || entries[0].BalanceAfter != 115 {
		t.Errorf("ledger entry = {before:%d after:%d}, want {100 115}",
			entries[0].BalanceBefore, entries[0].BalanceAfter)
	}
}

func TestCompleteStepIdempotent(t *testing.T) {
	store := storetest.New()
	svc := NewTutorialService(store)
	ctx := context.Background()

	first, err := svc.CompleteStep(ctx, 1, model.StepAddTransaction)
	if err != nil {
		t.Fatalf("first CompleteStep: %v", err)
	}
	if first.AlreadyCompleted || first.CreditsAwarded != 5 {
		t.Errorf("first = %+v, want {false 5}", first)
	}

	second, err := svc.CompleteStep(ctx, 1, model.StepAddTransaction)
	if err != nil {
		t.Fatalf("second CompleteStep: %v", err)
	}
	if !second.AlreadyCompleted || second.CreditsAwarded != 0 {
		t.Errorf("second = %+v, want {true 0}", second)
	}

	// Exactly one grant of 5.
	balance, _ := store.GetCreditBalance(ctx, 1)
	if balance.MessagesRemaining != 55 {
		t.Errorf("remaining = %d, want 55", balance.MessagesRemaining)
	}
	if entries := store.Entries(1); len(entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(entries))
	}
}

func TestCompleteStepConcurrentDuplicate(t *testing.T) {
	store := storetest.New()
	svc := NewTutorialService(store)

	results := make([]*model.CompleteStepResult, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.CompleteStep(context.Background(), 1, model.StepViewChart)
			if err != nil {
				t.Errorf("CompleteStep: %v", err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	fresh := 0
	for _, r := range results {
		if r != nil && !r.AlreadyCompleted {
			fresh++
		}
	}
	if fresh != 1 {
		t.Errorf("fresh completions = %d, want exactly 1", fresh)
	}

	progress, _ := svc.GetProgress(context.Background(), 1)
	if progress.CompletedSteps != 1 {
		t.Errorf("completed steps = %d, want 1", progress.CompletedSteps)
	}

	balance, _ := store.GetCreditBalance(context.Background(), 1)
	if balance.MessagesRemaining != 53 {
		t.Errorf("remaining = %d, want 53 (single +3 increment)", balance.MessagesRemaining)
	}
}

func TestCompleteStepInvalid(t *testing.T) {
	store := storetest.New()
	svc := NewTutorialService(store)

	_, err := svc.CompleteStep(context.Background(), 1, "nonexistent_step")
	var invalidStep *InvalidStepError
	if !errors.As(err, &invalidStep) {
		t.Fatalf("err = %v, want InvalidStepError", err)
	}
	if invalidStep.Step != "nonexistent_step" {
		t.Errorf("error step = %q, want %q", invalidStep.Step, "nonexistent_step")
	}

	// No storage mutation.
	if _, err := store.GetCreditBalance(context.Background(), 1); err == nil {
		t.Error("balance row created for invalid step")
	}
	if n, _ := store.CountTutorialCompletions(context.Background(), 1); n != 0 {
		t.Errorf("completions = %d, want 0", n)
	}
}

func TestCompleteStepFailureLeavesNoTrace(t *testing.T) {
	store := storetest.New()
	store.FailGrants = true
	svc := NewTutorialService(store)

	if _, err := svc.CompleteStep(context.Background(), 1, model.StepReceiptScan); err == nil {
		t.Fatal("expected error from failing store")
	}

	if n, _ := store.CountTutorialCompletions(context.Background(), 1); n != 0 {
		t.Errorf("completions = %d after rollback, want 0", n)
	}

	// Safe to retry once the store recovers.
	store.FailGrants = false
	result, err := svc.CompleteStep(context.Background(), 1, model.StepReceiptScan)
	if err != nil {
		t.Fatalf("retry CompleteStep: %v", err)
	}
	if result.AlreadyCompleted {
		t.Error("retry reported as already completed")
	}
}

func TestGetProgressEmpty(t *testing.T) {
	store := storetest.New()
	svc := NewTutorialService(store)

	progress, err := svc.GetProgress(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if progress.Steps == nil || len(progress.Steps) != 0 {
		t.Errorf("steps = %v, want empty slice", progress.Steps)
	}
	if progress.CompletedSteps != 0 || progress.TotalCreditsEarned != 0 {
		t.Errorf("progress = %+v, want zero counts", progress)
	}
	if progress.TotalSteps != 8 {
		t.Errorf("total steps = %d, want 8", progress.TotalSteps)
	}
}

func TestGetProgressFullTutorial(t *testing.T) {
	store := storetest.New()
	svc := NewTutorialService(store)
	ctx := context.Background()

	for step := range model.StepRewards {
		if _, err := svc.CompleteStep(ctx, 1, step); err != nil {
			t.Fatalf("CompleteStep(%s): %v", step, err)
		}
	}

	progress, err := svc.GetProgress(ctx, 1)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if progress.CompletedSteps != 8 {
		t.Errorf("completed steps = %d, want 8", progress.CompletedSteps)
	}
	if progress.TotalCreditsEarned != 55 {
		t.Errorf("total credits earned = %d, want 55", progress.TotalCreditsEarned)
	}
}
