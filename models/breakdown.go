package models

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/stockroom_backend/config"
	"bitbucket.org/mmdatafocus/stockroom_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OverAllocationError rejects an edit that would drive a remaining capacity
// field negative. The edit is dropped and the prior value retained.
type OverAllocationError struct {
	Type      MeasurementType
	Available decimal.Decimal
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("over-allocation: only %s %s available", e.Available.String(), lowerType(e.Type))
}

// ApplyDelta subtracts delta from remaining[t]. delta is new − old for an
// edit, the full amount for an add, and negative for a removal.
func ApplyDelta(remaining Capacity, t MeasurementType, delta decimal.Decimal) (Capacity, error) {
	available := remaining.Get(t)
	next := available.Sub(delta)
	if next.IsNegative() {
		return remaining, &OverAllocationError{Type: t, Available: available}
	}
	return remaining.with(t, next), nil
}

// DerivedRecord is one result of breaking down a source item: either a new
// item to create (Kind NewItem, payload in NewItem) or an allocation to an
// existing item (Kind Allocation, payload in TargetItemId). Amount is always
// expressed in the source item's tracking type.
type DerivedRecord struct {
	Kind         DerivedRecordKind `json:"kind"`
	NewItem      *NewItem          `json:"new_item"`
	TargetItemId int               `json:"target_item_id"`
	Amount       decimal.Decimal   `json:"amount"`
}

// BreakdownSession is the ephemeral state of one breakdown edit. It is
// discarded on cancel and persisted in a single call on commit.
type BreakdownSession struct {
	SessionId string
	Source    Item
	Mode      BreakdownMode
	Status    BreakdownStatus
	Records   []DerivedRecord
	Remaining Capacity
}

func NewBreakdownSession(source Item, mode BreakdownMode) *BreakdownSession {
	return &BreakdownSession{
		SessionId: uuid.NewString(),
		Source:    source,
		Mode:      mode,
		Status:    BreakdownStatusIdle,
		Remaining: source.CapacitySnapshot(),
	}
}

// Reset re-opens the session for a different source item. Uncommitted
// records are dropped and capacity re-initialized from the new item.
func (s *BreakdownSession) Reset(source Item) {
	s.Source = source
	s.Records = nil
	s.Remaining = source.CapacitySnapshot()
	s.Status = BreakdownStatusIdle
}

// SwitchMode is destructive: all uncommitted records are discarded and
// remaining capacity restored to the full source capacity.
func (s *BreakdownSession) SwitchMode(mode BreakdownMode) {
	if mode == s.Mode {
		return
	}
	s.Mode = mode
	s.Records = nil
	s.Remaining = s.Source.CapacitySnapshot()
	s.Status = BreakdownStatusIdle
}

// AddRecord appends a derived record if its amount fits the remaining
// capacity. A rejected add leaves the record list and capacity untouched.
func (s *BreakdownSession) AddRecord(rec DerivedRecord) error {
	if s.Status == BreakdownStatusClosed || s.Status == BreakdownStatusCommitting {
		return errors.New("breakdown session is no longer editable")
	}
	if rec.Amount.IsNegative() {
		return utils.ErrorNegativeValue
	}
	remaining, err := ApplyDelta(s.Remaining, s.Source.TrackingType, rec.Amount)
	if err != nil {
		return err
	}
	s.Remaining = remaining
	s.Records = append(s.Records, rec)
	s.Status = BreakdownStatusEditing
	return nil
}

// EditRecordAmount changes one record's amount; only the delta against the
// old amount is charged to the remaining capacity.
func (s *BreakdownSession) EditRecordAmount(index int, amount decimal.Decimal) error {
	if s.Status != BreakdownStatusEditing {
		return errors.New("breakdown session is not editable")
	}
	if index < 0 || index >= len(s.Records) {
		return fmt.Errorf("no derived record at index %d", index)
	}
	if amount.IsNegative() {
		return utils.ErrorNegativeValue
	}
	delta := amount.Sub(s.Records[index].Amount)
	remaining, err := ApplyDelta(s.Remaining, s.Source.TrackingType, delta)
	if err != nil {
		return err
	}
	s.Remaining = remaining
	s.Records[index].Amount = amount
	return nil
}

// RemoveRecord returns the record's amount to the remaining capacity.
func (s *BreakdownSession) RemoveRecord(index int) error {
	if s.Status != BreakdownStatusEditing {
		return errors.New("breakdown session is not editable")
	}
	if index < 0 || index >= len(s.Records) {
		return fmt.Errorf("no derived record at index %d", index)
	}
	remaining, err := ApplyDelta(s.Remaining, s.Source.TrackingType, s.Records[index].Amount.Neg())
	if err != nil {
		return err
	}
	s.Remaining = remaining
	s.Records = append(s.Records[:index], s.Records[index+1:]...)
	if len(s.Records) == 0 {
		s.Status = BreakdownStatusIdle
	}
	return nil
}

func (s *BreakdownSession) validateForCommit() error {
	if len(s.Records) == 0 {
		return errors.New("at least one derived record is required")
	}
	seenTargets := make(map[int]bool, len(s.Records))
	for _, rec := range s.Records {
		if !rec.Amount.IsPositive() {
			return fmt.Errorf("each derived record needs a positive %s amount", lowerType(s.Source.TrackingType))
		}
		switch rec.Kind {
		case DerivedRecordKindNewItem:
			if rec.NewItem == nil {
				return errors.New("new item fields are required")
			}
			if err := utils.ValidateStruct(rec.NewItem); err != nil {
				return err
			}
		case DerivedRecordKindAllocation:
			if rec.TargetItemId <= 0 {
				return errors.New("allocation target is required")
			}
			if rec.TargetItemId == s.Source.ID {
				return errors.New("cannot allocate a source item to itself")
			}
			if seenTargets[rec.TargetItemId] {
				return errors.New("duplicate allocation target")
			}
			seenTargets[rec.TargetItemId] = true
		default:
			return fmt.Errorf("unknown derived record kind %q", string(rec.Kind))
		}
	}
	return nil
}

// Commit validates the session and persists it in one transaction: new items
// are created, allocation deltas applied, and the source item's live capacity
// column lowered to the remaining amount. A validation failure returns the
// session to Editing; nothing is persisted.
func (s *BreakdownSession) Commit(ctx context.Context) error {
	if s.Status != BreakdownStatusEditing {
		return errors.New("nothing to commit")
	}
	s.Status = BreakdownStatusCommitting

	if err := s.validateForCommit(); err != nil {
		s.Status = BreakdownStatusEditing
		return err
	}

	db := config.GetDB()
	logger := config.GetLogger()

	trackingType := s.Source.TrackingType
	unit := s.Source.ActiveUnit()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deltas []AllocationDelta
		for _, rec := range s.Records {
			switch rec.Kind {
			case DerivedRecordKindNewItem:
				if _, err := createItemTx(ctx, tx, rec.NewItem, trackingType, rec.Amount, unit); err != nil {
					return err
				}
			case DerivedRecordKindAllocation:
				deltas = append(deltas, AllocationDelta{
					TargetItemId: rec.TargetItemId,
					Type:         trackingType,
					Amount:       rec.Amount,
				})
			}
		}
		if err := applyAllocationsTx(ctx, tx, deltas); err != nil {
			return err
		}

		column := capacityColumn(trackingType)
		err := tx.Model(&Item{}).
			Where("business_id = ? AND id = ?", s.Source.BusinessId, s.Source.ID).
			UpdateColumn(column, s.Remaining.Get(trackingType)).Error
		if err != nil {
			return err
		}
		return config.RemoveRedisKey(itemCacheKey(s.Source.BusinessId, s.Source.ID))
	})
	if err != nil {
		config.LogError(logger, "models", "BreakdownCommit", s.SessionId, nil, err)
		s.Status = BreakdownStatusEditing
		return err
	}

	s.Status = BreakdownStatusClosed
	return nil
}
