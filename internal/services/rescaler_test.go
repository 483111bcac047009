package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"fundledger/internal/models"
	"fundledger/internal/testutil"
)

func createTestAction(t *testing.T, db *gorm.DB, key models.SecurityKey, kind models.ActionKind, effectiveDate time.Time, from, to int64) *models.CorporateAction {
	t.Helper()

	action := &models.CorporateAction{
		SecurityKey:   key,
		Kind:          kind,
		EffectiveDate: effectiveDate,
		RatioFrom:     from,
		RatioTo:       to,
	}
	if err := db.Create(action).Error; err != nil {
		t.Fatalf("failed to create test action: %v", err)
	}
	return action
}

func TestRescalerApplyAction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	r := NewRescaler(NewLotStore())

	t.Run("split rescales earlier lots and preserves cost", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		lot := testutil.CreateTestLot(t, db, key, testutil.Date(2024, time.January, 1), "100", "10")

		action := createTestAction(t, db, key, models.ActionKindSplit, testutil.Date(2024, time.February, 1), 1, 2)
		testutil.AssertNoError(t, r.ApplyAction(db, action))

		var rescaled models.PurchaseLot
		testutil.AssertNoError(t, db.First(&rescaled, lot.ID).Error)
		testutil.AssertDecimal(t, "200", rescaled.Quantity)
		testutil.AssertDecimal(t, "5", rescaled.UnitPrice)
		testutil.AssertDecimal(t, "1000", rescaled.Cost())

		if !action.Applied || action.AppliedAt == nil {
			t.Error("expected action to be marked applied")
		}
	})

	t.Run("bonus issue increases quantity without changing total cost", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		lot := testutil.CreateTestLot(t, db, key, testutil.Date(2024, time.January, 1), "100", "15")

		// One bonus share for every two held: 2 -> 3.
		action := createTestAction(t, db, key, models.ActionKindBonus, testutil.Date(2024, time.March, 1), 2, 3)
		testutil.AssertNoError(t, r.ApplyAction(db, action))

		var rescaled models.PurchaseLot
		testutil.AssertNoError(t, db.First(&rescaled, lot.ID).Error)
		testutil.AssertDecimal(t, "150", rescaled.Quantity)
		testutil.AssertDecimal(t, "10", rescaled.UnitPrice)
		testutil.AssertDecimal(t, "1500", rescaled.Cost())
	})

	t.Run("lots on or after the effective date are untouched", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		onDate := testutil.CreateTestLot(t, db, key, testutil.Date(2024, time.February, 1), "100", "10")
		after := testutil.CreateTestLot(t, db, key, testutil.Date(2024, time.March, 1), "50", "12")

		action := createTestAction(t, db, key, models.ActionKindSplit, testutil.Date(2024, time.February, 1), 1, 2)
		testutil.AssertNoError(t, r.ApplyAction(db, action))

		var reloaded models.PurchaseLot
		testutil.AssertNoError(t, db.First(&reloaded, onDate.ID).Error)
		testutil.AssertDecimal(t, "100", reloaded.Quantity)
		var reloadedAfter models.PurchaseLot
		testutil.AssertNoError(t, db.First(&reloadedAfter, after.ID).Error)
		testutil.AssertDecimal(t, "50", reloadedAfter.Quantity)
	})

	t.Run("reapplying an applied action is a no-op", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		lot := testutil.CreateTestLot(t, db, key, testutil.Date(2024, time.January, 1), "100", "10")

		action := createTestAction(t, db, key, models.ActionKindSplit, testutil.Date(2024, time.February, 1), 1, 2)
		testutil.AssertNoError(t, r.ApplyAction(db, action))
		testutil.AssertNoError(t, r.ApplyAction(db, action))

		var rescaled models.PurchaseLot
		testutil.AssertNoError(t, db.First(&rescaled, lot.ID).Error)
		testutil.AssertDecimal(t, "200", rescaled.Quantity)
		testutil.AssertDecimal(t, "5", rescaled.UnitPrice)
	})

	t.Run("does not cross security keys", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		otherKey := testutil.CreateTestSecurityKey(t, db)
		other := testutil.CreateTestLot(t, db, otherKey, testutil.Date(2024, time.January, 1), "100", "10")

		action := createTestAction(t, db, key, models.ActionKindSplit, testutil.Date(2024, time.February, 1), 1, 2)
		testutil.AssertNoError(t, r.ApplyAction(db, action))

		var reloaded models.PurchaseLot
		testutil.AssertNoError(t, db.First(&reloaded, other.ID).Error)
		testutil.AssertDecimal(t, "100", reloaded.Quantity)
	})

	t.Run("rejects mergers", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		action := &models.CorporateAction{
			SecurityKey:   key,
			Kind:          models.ActionKindMerger,
			EffectiveDate: testutil.Date(2024, time.February, 1),
			RatioFrom:     1,
			RatioTo:       1,
		}
		testutil.AssertAppError(t, r.ApplyAction(db, action), "UNSUPPORTED_ACTION")
	})

	t.Run("rejects non-positive ratios", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		action := &models.CorporateAction{
			SecurityKey:   key,
			Kind:          models.ActionKindSplit,
			EffectiveDate: testutil.Date(2024, time.February, 1),
			RatioFrom:     0,
			RatioTo:       2,
		}
		testutil.AssertAppError(t, r.ApplyAction(db, action), "INVALID_RATIO")

		action.RatioFrom = 1
		action.RatioTo = -1
		testutil.AssertAppError(t, r.ApplyAction(db, action), "INVALID_RATIO")
	})

	t.Run("action predating every lot rescales nothing", func(t *testing.T) {
		key := testutil.CreateTestSecurityKey(t, db)
		lot := testutil.CreateTestLot(t, db, key, testutil.Date(2024, time.June, 1), "100", "10")

		action := createTestAction(t, db, key, models.ActionKindSplit, testutil.Date(2024, time.January, 1), 1, 2)
		testutil.AssertNoError(t, r.ApplyAction(db, action))

		var reloaded models.PurchaseLot
		testutil.AssertNoError(t, db.First(&reloaded, lot.ID).Error)
		testutil.AssertDecimal(t, "100", reloaded.Quantity)
		if !action.Applied {
			t.Error("expected action to be marked applied even with no lots to rescale")
		}
	})
}
