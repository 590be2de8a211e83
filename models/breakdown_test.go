package models_test

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/stockroom_backend/models"
	"github.com/shopspring/decimal"
)

func quantitySource(capacity int64) models.Item {
	return models.Item{
		ID:           1,
		BusinessId:   "biz-1",
		Name:         "Steel Rod Bundle",
		Sku:          "ITM-000001",
		TrackingType: models.MeasurementTypeQuantity,
		Quantity:     decimal.NewFromInt(capacity),
	}
}

func allocation(target int, amount int64) models.DerivedRecord {
	return models.DerivedRecord{
		Kind:         models.DerivedRecordKindAllocation,
		TargetItemId: target,
		Amount:       decimal.NewFromInt(amount),
	}
}

func TestApplyDelta_OverAllocation(t *testing.T) {
	remaining := models.Capacity{Weight: decimal.NewFromInt(3)}

	remaining, err := models.ApplyDelta(remaining, models.MeasurementTypeWeight, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("ApplyDelta(2 of 3): %v", err)
	}

	next, err := models.ApplyDelta(remaining, models.MeasurementTypeWeight, decimal.NewFromInt(2))
	if err == nil {
		t.Fatal("expected over-allocation error")
	}
	var overErr *models.OverAllocationError
	if !errors.As(err, &overErr) {
		t.Fatalf("expected OverAllocationError, got %T", err)
	}
	if !overErr.Available.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("available expected 1, got %s", overErr.Available.String())
	}
	if !next.Weight.Equal(remaining.Weight) {
		t.Fatalf("remaining changed on rejected delta: %s", next.Weight.String())
	}
}

func TestBreakdownSession_ConservationAcrossOperations(t *testing.T) {
	session := models.NewBreakdownSession(quantitySource(10), models.BreakdownModeAllocateExisting)

	assertRemaining := func(expected int64) {
		t.Helper()
		got := session.Remaining.Get(models.MeasurementTypeQuantity)
		if !got.Equal(decimal.NewFromInt(expected)) {
			t.Fatalf("remaining quantity expected %d, got %s", expected, got.String())
		}
	}

	if err := session.AddRecord(allocation(2, 4)); err != nil {
		t.Fatalf("add 4: %v", err)
	}
	assertRemaining(6)

	if err := session.AddRecord(allocation(3, 5)); err != nil {
		t.Fatalf("add 5: %v", err)
	}
	assertRemaining(1)

	if err := session.EditRecordAmount(0, decimal.NewFromInt(2)); err != nil {
		t.Fatalf("edit 4 -> 2: %v", err)
	}
	assertRemaining(3)

	// Growing the same record past the source capacity must be rejected and
	// the prior amount retained.
	err := session.EditRecordAmount(0, decimal.NewFromInt(6))
	if err == nil {
		t.Fatal("expected over-allocation on edit")
	}
	assertRemaining(3)
	if !session.Records[0].Amount.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("record amount changed on rejected edit: %s", session.Records[0].Amount.String())
	}

	if err := session.RemoveRecord(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	assertRemaining(8)
	if len(session.Records) != 1 {
		t.Fatalf("record count expected 1, got %d", len(session.Records))
	}
}

func TestBreakdownSession_OverAllocationRejectsAdd(t *testing.T) {
	session := models.NewBreakdownSession(quantitySource(10), models.BreakdownModeAllocateExisting)

	if err := session.AddRecord(allocation(2, 10)); err != nil {
		t.Fatalf("add 10 of 10: %v", err)
	}

	err := session.AddRecord(allocation(3, 1))
	var overErr *models.OverAllocationError
	if !errors.As(err, &overErr) {
		t.Fatalf("expected OverAllocationError, got %v", err)
	}
	if !overErr.Available.IsZero() {
		t.Fatalf("available expected 0, got %s", overErr.Available.String())
	}
	// The rejected record is not appended.
	if len(session.Records) != 1 {
		t.Fatalf("record count expected 1, got %d", len(session.Records))
	}
	if !session.Remaining.Get(models.MeasurementTypeQuantity).IsZero() {
		t.Fatalf("remaining expected 0, got %s", session.Remaining.Quantity.String())
	}
}

func TestBreakdownSession_ModeSwitchResets(t *testing.T) {
	session := models.NewBreakdownSession(quantitySource(10), models.BreakdownModeCreateNew)

	rec := models.DerivedRecord{
		Kind:    models.DerivedRecordKindNewItem,
		NewItem: &models.NewItem{Name: "Short Rod", Sku: "ITM-000002"},
		Amount:  decimal.NewFromInt(7),
	}
	if err := session.AddRecord(rec); err != nil {
		t.Fatalf("add: %v", err)
	}

	session.SwitchMode(models.BreakdownModeAllocateExisting)

	if len(session.Records) != 0 {
		t.Fatalf("records expected cleared, got %d", len(session.Records))
	}
	for _, mt := range models.AllMeasurementTypes() {
		expected := session.Source.CapacitySnapshot().Get(mt)
		if !session.Remaining.Get(mt).Equal(expected) {
			t.Fatalf("remaining %s expected %s, got %s", mt, expected.String(), session.Remaining.Get(mt).String())
		}
	}
	if session.Status != models.BreakdownStatusIdle {
		t.Fatalf("status expected Idle, got %s", session.Status)
	}

	// Switching to the mode already selected is a no-op.
	if err := session.AddRecord(allocation(2, 3)); err != nil {
		t.Fatalf("add after switch: %v", err)
	}
	session.SwitchMode(models.BreakdownModeAllocateExisting)
	if len(session.Records) != 1 {
		t.Fatalf("same-mode switch must not clear records, got %d", len(session.Records))
	}
}

func TestBreakdownCommit_Validation(t *testing.T) {
	cases := []struct {
		name     string
		records  []models.DerivedRecord
		expected string
	}{
		{
			name:     "zero amount",
			records:  []models.DerivedRecord{allocation(2, 0)},
			expected: "each derived record needs a positive quantity amount",
		},
		{
			name: "new item missing name",
			records: []models.DerivedRecord{{
				Kind:    models.DerivedRecordKindNewItem,
				NewItem: &models.NewItem{Sku: "ITM-000009"},
				Amount:  decimal.NewFromInt(2),
			}},
			expected: "name is required",
		},
		{
			name: "new item missing sku",
			records: []models.DerivedRecord{{
				Kind:    models.DerivedRecordKindNewItem,
				NewItem: &models.NewItem{Name: "Short Rod"},
				Amount:  decimal.NewFromInt(2),
			}},
			expected: "sku is required",
		},
		{
			name:     "allocation target missing",
			records:  []models.DerivedRecord{allocation(0, 2)},
			expected: "allocation target is required",
		},
		{
			name:     "allocation to source itself",
			records:  []models.DerivedRecord{allocation(1, 2)},
			expected: "cannot allocate a source item to itself",
		},
		{
			name:     "duplicate allocation target",
			records:  []models.DerivedRecord{allocation(2, 2), allocation(2, 3)},
			expected: "duplicate allocation target",
		},
	}

	for _, tc := range cases {
		session := models.NewBreakdownSession(quantitySource(10), models.BreakdownModeAllocateExisting)
		for _, rec := range tc.records {
			if err := session.AddRecord(rec); err != nil {
				t.Fatalf("%s: add: %v", tc.name, err)
			}
		}
		err := session.Commit(context.Background())
		if err == nil {
			t.Fatalf("%s: expected commit to fail", tc.name)
		}
		if err.Error() != tc.expected {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.expected, err.Error())
		}
		if session.Status != models.BreakdownStatusEditing {
			t.Fatalf("%s: status expected Editing after failed commit, got %s", tc.name, session.Status)
		}
	}
}

func TestBreakdownCommit_RequiresRecords(t *testing.T) {
	session := models.NewBreakdownSession(quantitySource(10), models.BreakdownModeCreateNew)
	if err := session.Commit(context.Background()); err == nil {
		t.Fatal("commit of an idle session expected to fail")
	}
}

func TestBreakdownSession_ResetReinitializesCapacity(t *testing.T) {
	session := models.NewBreakdownSession(quantitySource(10), models.BreakdownModeAllocateExisting)
	if err := session.AddRecord(allocation(2, 9)); err != nil {
		t.Fatalf("add: %v", err)
	}

	other := models.Item{
		ID:           5,
		BusinessId:   "biz-1",
		Name:         "Copper Wire Spool",
		Sku:          "ITM-000005",
		TrackingType: models.MeasurementTypeLength,
		Length:       decimal.NewFromInt(50),
		LengthUnit:   "m",
	}
	session.Reset(other)

	if len(session.Records) != 0 {
		t.Fatalf("records expected cleared after reset, got %d", len(session.Records))
	}
	if !session.Remaining.Get(models.MeasurementTypeLength).Equal(decimal.NewFromInt(50)) {
		t.Fatalf("remaining length expected 50, got %s", session.Remaining.Length.String())
	}
	if !session.Remaining.Get(models.MeasurementTypeQuantity).IsZero() {
		t.Fatalf("stale quantity capacity survived reset: %s", session.Remaining.Quantity.String())
	}
}
