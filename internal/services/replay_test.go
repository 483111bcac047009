package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/testutil"
)

func makeLot(t *testing.T, tradeDate time.Time, quantity, unitPrice string) models.PurchaseLot {
	t.Helper()
	return models.PurchaseLot{
		TradeDate: tradeDate,
		Quantity:  testutil.Dec(t, quantity),
		UnitPrice: testutil.Dec(t, unitPrice),
		Status:    models.TxStatusPosted,
	}
}

func makeDisposal(t *testing.T, tradeDate time.Time, quantity, unitPrice string) models.Disposal {
	t.Helper()
	return models.Disposal{
		TradeDate: tradeDate,
		Quantity:  testutil.Dec(t, quantity),
		UnitPrice: testutil.Dec(t, unitPrice),
		Status:    models.TxStatusPosted,
	}
}

func TestReplayCostBasis(t *testing.T) {
	jan := testutil.Date(2024, time.January, 1)
	feb := testutil.Date(2024, time.February, 1)
	mar := testutil.Date(2024, time.March, 1)

	t.Run("consumes oldest lots first across a lot boundary", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "100", "10"),
			makeLot(t, feb, "100", "14"),
		}
		target := makeDisposal(t, mar, "150", "20")

		costBasis, realizedGain, err := replayCostBasis(lots, nil, &target)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "1700", costBasis)
		testutil.AssertDecimal(t, "1300", realizedGain)
	})

	t.Run("is sensitive to lot order", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "100", "10"),
			makeLot(t, feb, "100", "20"),
		}
		target := makeDisposal(t, mar, "100", "15")

		costBasis, _, err := replayCostBasis(lots, nil, &target)
		testutil.AssertNoError(t, err)
		// The cheap January lot goes first; a LIFO engine would report 2000.
		testutil.AssertDecimal(t, "1000", costBasis)
	})

	t.Run("accounts for prior disposals before the target", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "100", "10"),
			makeLot(t, feb, "100", "14"),
		}
		prior := []models.Disposal{
			makeDisposal(t, feb, "100", "12"),
		}
		target := makeDisposal(t, mar, "50", "20")

		costBasis, realizedGain, err := replayCostBasis(lots, prior, &target)
		testutil.AssertNoError(t, err)
		// The prior disposal exhausted the January lot entirely.
		testutil.AssertDecimal(t, "700", costBasis)
		testutil.AssertDecimal(t, "300", realizedGain)
	})

	t.Run("splits a disposal across a partially consumed lot", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "100", "10"),
			makeLot(t, feb, "100", "14"),
		}
		prior := []models.Disposal{
			makeDisposal(t, feb, "60", "12"),
		}
		target := makeDisposal(t, mar, "60", "20")

		costBasis, _, err := replayCostBasis(lots, prior, &target)
		testutil.AssertNoError(t, err)
		// 40 left at 10, then 20 at 14.
		testutil.AssertDecimal(t, "680", costBasis)
	})

	t.Run("rejects a disposal exceeding remaining inventory", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "100", "10"),
		}
		target := makeDisposal(t, mar, "150", "20")

		_, _, err := replayCostBasis(lots, nil, &target)
		if !errors.Is(err, apperrors.ErrInsufficientInventory) {
			t.Fatalf("expected ErrInsufficientInventory, got %v", err)
		}
	})

	t.Run("rejects a disposal against empty inventory", func(t *testing.T) {
		target := makeDisposal(t, mar, "1", "20")

		_, _, err := replayCostBasis(nil, nil, &target)
		testutil.AssertAppError(t, err, "INSUFFICIENT_INVENTORY")
	})

	t.Run("is pure and repeatable", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "100", "10"),
			makeLot(t, feb, "100", "14"),
		}
		prior := []models.Disposal{
			makeDisposal(t, feb, "30", "12"),
		}
		target := makeDisposal(t, mar, "150", "20")

		first, firstGain, err := replayCostBasis(lots, prior, &target)
		testutil.AssertNoError(t, err)
		second, secondGain, err := replayCostBasis(lots, prior, &target)
		testutil.AssertNoError(t, err)

		if !first.Equal(second) || !firstGain.Equal(secondGain) {
			t.Errorf("replay not repeatable: %s/%s then %s/%s",
				first, firstGain, second, secondGain)
		}
		// Inputs must come back untouched.
		testutil.AssertDecimal(t, "100", lots[0].Quantity)
		testutil.AssertDecimal(t, "100", lots[1].Quantity)
		testutil.AssertDecimal(t, "30", prior[0].Quantity)
	})

	t.Run("rounds derived figures to the currency scale", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "3", "10.333333"),
		}
		target := makeDisposal(t, mar, "3", "11.111111")

		costBasis, realizedGain, err := replayCostBasis(lots, nil, &target)
		testutil.AssertNoError(t, err)
		// 30.999999 rounds to 31.00, 33.333333 - 31.00 = 2.33.
		testutil.AssertDecimal(t, "31", costBasis)
		testutil.AssertDecimal(t, "2.33", realizedGain)
	})

	t.Run("fractional quantities carry full precision through the replay", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "0.5", "100.5"),
			makeLot(t, feb, "0.25", "101"),
		}
		target := makeDisposal(t, mar, "0.6", "110")

		costBasis, _, err := replayCostBasis(lots, nil, &target)
		testutil.AssertNoError(t, err)
		// 0.5*100.5 + 0.1*101 = 60.35.
		testutil.AssertDecimal(t, "60.35", costBasis)
	})

	t.Run("selling the whole inventory exactly is not an oversell", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "100", "10"),
		}
		target := makeDisposal(t, mar, "100", "20")

		costBasis, realizedGain, err := replayCostBasis(lots, nil, &target)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "1000", costBasis)
		testutil.AssertDecimal(t, "1000", realizedGain)
	})

	t.Run("gain derives from rounded proceeds", func(t *testing.T) {
		lots := []models.PurchaseLot{
			makeLot(t, jan, "1", "10"),
		}
		target := makeDisposal(t, mar, "1", "10.005")

		costBasis, realizedGain, err := replayCostBasis(lots, nil, &target)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "10", costBasis)
		// Proceeds 10.005 round half-up to 10.01.
		if realizedGain.Cmp(decimal.Zero) <= 0 {
			t.Errorf("expected positive gain, got %s", realizedGain)
		}
	})
}
