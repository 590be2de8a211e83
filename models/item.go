package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/stockroom_backend/config"
	"bitbucket.org/mmdatafocus/stockroom_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a stocked entity. Stock is measured in exactly one measurement
// type (TrackingType); the capacity columns of the other types are kept for
// display only and never interpreted by the engine.
type Item struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null" json:"business_id"`
	SequenceNo   decimal.Decimal `gorm:"type:decimal(15);not null" json:"sequence_no"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	Sku          string          `gorm:"size:100;not null" json:"sku"`
	Category     string          `gorm:"size:100;default:null" json:"category"`
	Price        decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"price"`
	Cost         decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"cost"`
	TrackingType MeasurementType `gorm:"type:enum('Quantity','Weight','Length','Area','Volume');not null" json:"tracking_type"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"quantity"`
	Weight       decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"weight"`
	WeightUnit   string          `gorm:"size:10;default:null" json:"weight_unit"`
	Length       decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"length"`
	LengthUnit   string          `gorm:"size:10;default:null" json:"length_unit"`
	Area         decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"area"`
	AreaUnit     string          `gorm:"size:10;default:null" json:"area_unit"`
	Volume       decimal.Decimal `gorm:"type:decimal(20,5);default:0" json:"volume"`
	VolumeUnit   string          `gorm:"size:10;default:null" json:"volume_unit"`
	Tags         string          `gorm:"size:255;default:null" json:"tags"`
	Description  string          `gorm:"type:text;default:null" json:"description"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewItem carries the creation fields of an item. It is also the payload of
// a breakdown record that creates a new item from a source item.
type NewItem struct {
	Name        string          `json:"name" validate:"required"`
	Sku         string          `json:"sku" validate:"required"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Tags        string          `json:"tags"`
	Description string          `json:"description"`
}

// CapacitySnapshot reads the live capacity of the item's tracking type.
// Inert capacity columns are deliberately left at zero.
func (it Item) CapacitySnapshot() Capacity {
	var c Capacity
	switch it.TrackingType {
	case MeasurementTypeQuantity:
		c.Quantity = it.Quantity
	case MeasurementTypeWeight:
		c.Weight = it.Weight
	case MeasurementTypeLength:
		c.Length = it.Length
	case MeasurementTypeArea:
		c.Area = it.Area
	case MeasurementTypeVolume:
		c.Volume = it.Volume
	}
	return c
}

// ActiveUnit returns the unit symbol of the item's tracking type.
func (it Item) ActiveUnit() string {
	switch it.TrackingType {
	case MeasurementTypeWeight:
		return it.WeightUnit
	case MeasurementTypeLength:
		return it.LengthUnit
	case MeasurementTypeArea:
		return it.AreaUnit
	case MeasurementTypeVolume:
		return it.VolumeUnit
	}
	return ""
}

func (it *Item) setCapacity(t MeasurementType, v decimal.Decimal) {
	switch t {
	case MeasurementTypeQuantity:
		it.Quantity = v
	case MeasurementTypeWeight:
		it.Weight = v
	case MeasurementTypeLength:
		it.Length = v
	case MeasurementTypeArea:
		it.Area = v
	case MeasurementTypeVolume:
		it.Volume = v
	}
}

// capacityColumn maps a measurement type to its stock column.
func capacityColumn(t MeasurementType) string {
	switch t {
	case MeasurementTypeQuantity:
		return "quantity"
	case MeasurementTypeWeight:
		return "weight"
	case MeasurementTypeLength:
		return "length"
	case MeasurementTypeArea:
		return "area"
	case MeasurementTypeVolume:
		return "volume"
	}
	return ""
}

// NextSku suggests the next item identifier. It is an opaque seed for
// default naming; uniqueness is not enforced here.
func NextSku(ctx context.Context) (string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return "", errors.New("business id is required")
	}
	seqNo, err := utils.GetSequence[Item](ctx, businessId)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ITM-%06d", seqNo), nil
}

func CreateItem(ctx context.Context, input *NewItem, trackingType MeasurementType, amount decimal.Decimal, unit string) (*Item, error) {
	db := config.GetDB()
	return createItemTx(ctx, db, input, trackingType, amount, unit)
}

func createItemTx(ctx context.Context, tx *gorm.DB, input *NewItem, trackingType MeasurementType, amount decimal.Decimal, unit string) (*Item, error) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	m := Measurement{Type: trackingType, Amount: amount, Unit: unit}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	seqNo, err := utils.GetSequence[Item](ctx, businessId)
	if err != nil {
		return nil, err
	}

	item := Item{
		BusinessId:   businessId,
		SequenceNo:   decimal.NewFromInt(seqNo),
		Name:         input.Name,
		Sku:          input.Sku,
		Category:     input.Category,
		Price:        input.Price,
		Cost:         input.Cost,
		TrackingType: trackingType,
		Tags:         input.Tags,
		Description:  input.Description,
	}
	item.setCapacity(trackingType, amount)
	switch trackingType {
	case MeasurementTypeWeight:
		item.WeightUnit = unit
	case MeasurementTypeLength:
		item.LengthUnit = unit
	case MeasurementTypeArea:
		item.AreaUnit = unit
	case MeasurementTypeVolume:
		item.VolumeUnit = unit
	}

	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		config.LogError(logger, "models", "CreateItem", "create", input, err)
		return nil, err
	}
	return &item, nil
}

func itemCacheKey(businessId string, id int) string {
	return "Item:" + businessId + ":" + fmt.Sprint(id)
}

// GetItem reads one item, served from the redis object cache when warm.
// Writers that change stock invalidate the cached entry.
func GetItem(ctx context.Context, id int) (*Item, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var item Item
	exists, err := config.GetRedisObject(itemCacheKey(businessId, id), &item)
	if err != nil {
		return nil, err
	}
	if exists {
		return &item, nil
	}

	err = db.WithContext(ctx).
		Where("business_id = ?", businessId).
		First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(itemCacheKey(businessId, id), &item, 0); err != nil {
		return nil, err
	}
	return &item, nil
}

// SearchItems returns allocation candidates matching the search text by name
// or sku, limited to config.SearchLimit rows.
func SearchItems(ctx context.Context, text string) ([]Item, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var items []Item
	pattern := "%" + text + "%"
	err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("name LIKE ? OR sku LIKE ?", pattern, pattern).
		Limit(config.SearchLimit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AllocationDelta is one persisted allocation: the target item gains the
// amount in the given measurement type.
type AllocationDelta struct {
	TargetItemId int             `json:"target_item_id"`
	Type         MeasurementType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
}

func ApplyAllocations(ctx context.Context, deltas []AllocationDelta) error {
	db := config.GetDB()
	return applyAllocationsTx(ctx, db, deltas)
}

func applyAllocationsTx(ctx context.Context, tx *gorm.DB, deltas []AllocationDelta) error {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	if len(deltas) == 0 {
		return nil
	}

	targetIds := make([]int, 0, len(deltas))
	for _, d := range deltas {
		targetIds = append(targetIds, d.TargetItemId)
	}
	if err := utils.ValidateResourcesId[Item](ctx, businessId, targetIds); err != nil {
		return errors.New("allocation target not found")
	}

	cacheKeys := make([]string, 0, len(deltas))
	for _, d := range deltas {
		column := capacityColumn(d.Type)
		if column == "" {
			return fmt.Errorf("invalid measurement type %q", string(d.Type))
		}
		err := tx.WithContext(ctx).Model(&Item{}).
			Where("business_id = ? AND id = ?", businessId, d.TargetItemId).
			UpdateColumn(column, gorm.Expr(column+" + ?", d.Amount)).Error
		if err != nil {
			config.LogError(logger, "models", "ApplyAllocations", "update", d, err)
			return err
		}
		cacheKeys = append(cacheKeys, itemCacheKey(businessId, d.TargetItemId))
	}
	return config.RemoveRedisKey(cacheKeys...)
}
