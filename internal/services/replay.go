package services

import (
	"github.com/shopspring/decimal"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
)

// currencyScale is the reporting currency's minor-unit scale. Cost basis and
// realized gain are rounded to it only once, at the end of a replay;
// intermediate values keep full precision.
const currencyScale = 2

// guardScale is the precision carried by rescaled quantities and unit prices.
const guardScale = 8

// replayCostBasis reconstructs the FIFO consumption state of the given lots
// as of the target disposal and consumes the target's quantity from the
// remaining inventory.
//
// lots must contain every posted lot with trade_date <= target.TradeDate and
// prior every posted disposal preceding the target, both in (trade_date, id)
// order. The function mutates neither input; it is a pure function of the
// ledger snapshot and may be invoked repeatedly with identical results.
func replayCostBasis(lots []models.PurchaseLot, prior []models.Disposal, target *models.Disposal) (costBasis, realizedGain decimal.Decimal, err error) {
	remaining := make([]decimal.Decimal, len(lots))
	for i := range lots {
		remaining[i] = lots[i].Quantity
	}

	// Consume prior disposals in ledger order so that the counters reflect
	// the true inventory immediately before the target.
	for i := range prior {
		toDeduct := prior[i].Quantity
		for j := range remaining {
			if toDeduct.IsZero() {
				break
			}
			if remaining[j].IsPositive() {
				taken := decimal.Min(remaining[j], toDeduct)
				remaining[j] = remaining[j].Sub(taken)
				toDeduct = toDeduct.Sub(taken)
			}
		}
		// A prior disposal that cannot be covered means the ledger itself
		// violates conservation; the target's own shortfall check below
		// surfaces it as an oversell.
	}

	costBasis = decimal.Zero
	toAccount := target.Quantity
	for j := range remaining {
		if !toAccount.IsPositive() {
			break
		}
		if remaining[j].IsPositive() {
			taken := decimal.Min(remaining[j], toAccount)
			costBasis = costBasis.Add(taken.Mul(lots[j].UnitPrice))
			toAccount = toAccount.Sub(taken)
		}
	}

	if toAccount.IsPositive() {
		return decimal.Zero, decimal.Zero, apperrors.ErrInsufficientInventory
	}

	costBasis = costBasis.Round(currencyScale)
	realizedGain = target.Proceeds().Round(currencyScale).Sub(costBasis)
	return costBasis, realizedGain, nil
}
