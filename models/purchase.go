package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/stockroom_backend/config"
	"bitbucket.org/mmdatafocus/stockroom_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is one priced document composed of line items. Subtotal, TaxAmount
// and Total are derived; Recompute keeps them consistent after every line
// mutation.
type Purchase struct {
	ID             int                `gorm:"primary_key" json:"id"`
	BusinessId     string             `gorm:"index;not null" json:"business_id"`
	SupplierId     int                `gorm:"index;default:null" json:"supplier_id"`
	SupplierName   string             `gorm:"size:255;not null" json:"supplier_name"`
	PurchaseNumber string             `gorm:"size:255;not null" json:"purchase_number"`
	SequenceNo     decimal.Decimal    `gorm:"type:decimal(15);not null" json:"sequence_no"`
	PurchaseDate   time.Time          `gorm:"not null" json:"purchase_date"`
	Notes          string             `gorm:"type:text;default:null" json:"notes"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(20,5);default:0" json:"discount_amount"`
	TaxRate        decimal.Decimal    `gorm:"type:decimal(20,5);default:0" json:"tax_rate"`
	TaxAmount      decimal.Decimal    `gorm:"type:decimal(20,5);default:0" json:"tax_amount"`
	ShippingCost   decimal.Decimal    `gorm:"type:decimal(20,5);default:0" json:"shipping_cost"`
	Subtotal       decimal.Decimal    `gorm:"type:decimal(20,5);default:0" json:"subtotal"`
	Total          decimal.Decimal    `gorm:"type:decimal(20,5);default:0" json:"total"`
	Details        []PurchaseLineItem `json:"purchase_details"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchase struct {
	SupplierId     int                   `json:"supplier_id"`
	SupplierName   string                `json:"supplier_name"`
	PurchaseDate   time.Time             `json:"purchase_date"`
	Notes          string                `json:"notes"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TaxRate        decimal.Decimal       `json:"tax_rate"`
	ShippingCost   decimal.Decimal       `json:"shipping_cost"`
	Details        []NewPurchaseLineItem `json:"details"`
}

type NewPurchaseLineItem struct {
	ItemId            int             `json:"item_id"`
	AssetId           int             `json:"asset_id"`
	PurchasedBy       MeasurementType `json:"purchased_by" validate:"required"`
	MeasurementAmount decimal.Decimal `json:"measurement_amount"`
	MeasurementUnit   string          `json:"measurement_unit"`
	OriginalCost      decimal.Decimal `json:"original_cost"`
	Discount          decimal.Decimal `json:"discount"`
	DiscountType      *DiscountType   `json:"discount_type"`
}

// Recompute resums the full line set and re-derives subtotal, tax and total.
// A full resum on every change is the contract; line counts are small.
func (p Purchase) Recompute() Purchase {
	subtotal := decimal.Zero
	for _, detail := range p.Details {
		subtotal = subtotal.Add(detail.TotalCost)
	}
	p.Subtotal = utils.RoundAmount(subtotal)

	decimalOneHundred := decimal.NewFromInt(100)
	p.TaxAmount = utils.RoundAmount(p.Subtotal.Mul(p.TaxRate).Div(decimalOneHundred))
	p.Total = utils.RoundAmount(p.Subtotal.Sub(p.DiscountAmount).Add(p.TaxAmount).Add(p.ShippingCost))

	return p
}

// ValidateForCommit checks structural completeness before the document is
// handed to persistence. Rules run in order and stop at the first failure.
func (p Purchase) ValidateForCommit() error {
	if strings.TrimSpace(p.SupplierName) == "" {
		return errors.New("supplier name is required")
	}
	if len(p.Details) == 0 {
		return errors.New("at least one line item is required")
	}
	if !p.Total.IsPositive() {
		return errors.New("purchase total must be greater than zero")
	}
	return nil
}

func buildPurchaseLineItem(input NewPurchaseLineItem) (PurchaseLineItem, error) {
	if input.MeasurementAmount.IsNegative() || input.OriginalCost.IsNegative() || input.Discount.IsNegative() {
		return PurchaseLineItem{}, utils.ErrorNegativeValue
	}
	m := Measurement{Type: input.PurchasedBy, Amount: input.MeasurementAmount, Unit: input.MeasurementUnit}
	if err := m.Validate(); err != nil {
		return PurchaseLineItem{}, err
	}

	line := PurchaseLineItem{
		ItemId:            input.ItemId,
		AssetId:           input.AssetId,
		PurchasedBy:       input.PurchasedBy,
		MeasurementAmount: input.MeasurementAmount,
		MeasurementUnit:   input.MeasurementUnit,
		OriginalCost:      input.OriginalCost,
		DiscountType:      input.DiscountType,
	}
	if utils.DereferencePtr(input.DiscountType, DiscountTypeAmount) == DiscountTypePercentage {
		line.DiscountPercentage = input.Discount
	} else {
		line.DiscountAmount = input.Discount
	}
	return line.recalc(), nil
}

func CreatePurchase(ctx context.Context, input *NewPurchase) (*Purchase, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	details := make([]PurchaseLineItem, 0, len(input.Details))
	for _, d := range input.Details {
		line, err := buildPurchaseLineItem(d)
		if err != nil {
			return nil, err
		}
		details = append(details, line)
	}

	purchase := Purchase{
		BusinessId:     businessId,
		SupplierId:     input.SupplierId,
		SupplierName:   input.SupplierName,
		PurchaseDate:   input.PurchaseDate,
		Notes:          input.Notes,
		DiscountAmount: input.DiscountAmount,
		TaxRate:        input.TaxRate,
		ShippingCost:   input.ShippingCost,
		Details:        details,
	}
	purchase = purchase.Recompute()

	if err := purchase.ValidateForCommit(); err != nil {
		return nil, err
	}

	seqNo, err := utils.GetSequence[Purchase](ctx, businessId)
	if err != nil {
		return nil, err
	}
	purchase.SequenceNo = decimal.NewFromInt(seqNo)
	purchase.PurchaseNumber = "PUR-" + fmt.Sprint(seqNo)

	if err := db.WithContext(ctx).Create(&purchase).Error; err != nil {
		config.LogError(logger, "models", "CreatePurchase", "create", input, err)
		return nil, err
	}
	return &purchase, nil
}

func UpdatePurchase(ctx context.Context, id int, input *NewPurchase) (*Purchase, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateResourceId[Purchase](ctx, businessId, id); err != nil {
		return nil, errors.New("purchase not found")
	}

	details := make([]PurchaseLineItem, 0, len(input.Details))
	for _, d := range input.Details {
		line, err := buildPurchaseLineItem(d)
		if err != nil {
			return nil, err
		}
		line.PurchaseId = id
		details = append(details, line)
	}

	var purchase Purchase
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Details").Where("business_id = ?", businessId).First(&purchase, id).Error; err != nil {
			return err
		}

		// Replace the full line set; derived totals are recomputed from it.
		if err := tx.Where("purchase_id = ?", id).Delete(&PurchaseLineItem{}).Error; err != nil {
			return err
		}

		purchase.SupplierId = input.SupplierId
		purchase.SupplierName = input.SupplierName
		purchase.PurchaseDate = input.PurchaseDate
		purchase.Notes = input.Notes
		purchase.DiscountAmount = input.DiscountAmount
		purchase.TaxRate = input.TaxRate
		purchase.ShippingCost = input.ShippingCost
		purchase.Details = details
		purchase = purchase.Recompute()

		if err := purchase.ValidateForCommit(); err != nil {
			return err
		}

		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&purchase).Error
	})
	if err != nil {
		config.LogError(logger, "models", "UpdatePurchase", "update", input, err)
		return nil, err
	}
	return &purchase, nil
}

func GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var purchase Purchase
	err := db.WithContext(ctx).
		Preload("Details").
		Where("business_id = ?", businessId).
		First(&purchase, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}
