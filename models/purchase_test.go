package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/stockroom_backend/models"
	"github.com/shopspring/decimal"
)

func TestPurchaseRecompute_Aggregation(t *testing.T) {
	purchase := models.Purchase{
		SupplierName:   "Acme Supply",
		DiscountAmount: decimal.NewFromInt(10),
		TaxRate:        decimal.NewFromInt(10),
		ShippingCost:   decimal.NewFromInt(5),
		Details: []models.PurchaseLineItem{
			{TotalCost: decimal.NewFromInt(50)},
			{TotalCost: decimal.NewFromInt(75)},
		},
	}

	purchase = purchase.Recompute()

	if !purchase.Subtotal.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("subtotal expected 125, got %s", purchase.Subtotal.String())
	}
	if !purchase.TaxAmount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("taxAmount expected 12.5, got %s", purchase.TaxAmount.String())
	}
	if !purchase.Total.Equal(decimal.RequireFromString("132.5")) {
		t.Fatalf("total expected 132.5, got %s", purchase.Total.String())
	}
}

func TestPurchaseRecompute_EmptyLineSet(t *testing.T) {
	purchase := models.Purchase{
		TaxRate:      decimal.NewFromInt(10),
		ShippingCost: decimal.NewFromInt(5),
	}

	purchase = purchase.Recompute()

	if !purchase.Subtotal.IsZero() {
		t.Fatalf("subtotal of empty line set expected 0, got %s", purchase.Subtotal.String())
	}
	if !purchase.Total.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("total expected 5, got %s", purchase.Total.String())
	}
}

func TestPurchaseRecompute_StableUnderRepeatedRuns(t *testing.T) {
	purchase := models.Purchase{
		DiscountAmount: decimal.RequireFromString("0.33333"),
		TaxRate:        decimal.RequireFromString("7.5"),
		ShippingCost:   decimal.RequireFromString("1.25"),
		Details: []models.PurchaseLineItem{
			{TotalCost: decimal.RequireFromString("9.99999")},
			{TotalCost: decimal.RequireFromString("0.00001")},
		},
	}

	once := purchase.Recompute()
	twice := once.Recompute()

	if !once.Total.Equal(twice.Total) || !once.TaxAmount.Equal(twice.TaxAmount) {
		t.Fatalf("recompute drifted: total %s then %s", once.Total.String(), twice.Total.String())
	}
}

func TestValidatePurchase_FirstFailingRuleWins(t *testing.T) {
	// No supplier name AND no line items: the supplier rule must fire first.
	purchase := models.Purchase{SupplierName: "   "}
	err := purchase.ValidateForCommit()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if err.Error() != "supplier name is required" {
		t.Fatalf("expected supplier-name message first, got %q", err.Error())
	}
}

func TestValidatePurchase_RuleOrder(t *testing.T) {
	cases := []struct {
		name     string
		purchase models.Purchase
		expected string
	}{
		{
			name:     "no line items",
			purchase: models.Purchase{SupplierName: "Acme Supply"},
			expected: "at least one line item is required",
		},
		{
			name: "zero total",
			purchase: models.Purchase{
				SupplierName: "Acme Supply",
				Details:      []models.PurchaseLineItem{{}},
			},
			expected: "purchase total must be greater than zero",
		},
	}
	for _, tc := range cases {
		err := tc.purchase.Recompute().ValidateForCommit()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if err.Error() != tc.expected {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.expected, err.Error())
		}
	}
}

func TestValidatePurchase_PassesCompleteDocument(t *testing.T) {
	purchase := models.Purchase{
		SupplierName: "Acme Supply",
		Details:      []models.PurchaseLineItem{{TotalCost: decimal.NewFromInt(50)}},
	}
	if err := purchase.Recompute().ValidateForCommit(); err != nil {
		t.Fatalf("expected valid purchase, got %v", err)
	}
}
