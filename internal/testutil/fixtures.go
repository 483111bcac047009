package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fundledger/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, failing the test on bad input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal literal %q: %v", s, err)
	}
	return d
}

// Date builds a calendar date in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestFund creates a fund with a unique registration number.
func CreateTestFund(t *testing.T, db *gorm.DB) *models.Fund {
	t.Helper()

	fund := &models.Fund{
		Name:               fmt.Sprintf("Test Fund %d", nextID()),
		RegistrationNumber: fmt.Sprintf("IN/AIF/%06d", nextID()),
		Currency:           "INR",
	}
	if err := db.Create(fund).Error; err != nil {
		t.Fatalf("failed to create test fund: %v", err)
	}
	return fund
}

// CreateTestIssuer creates an issuer with a unique CIN.
func CreateTestIssuer(t *testing.T, db *gorm.DB) *models.Issuer {
	t.Helper()

	issuer := &models.Issuer{
		Name:   fmt.Sprintf("Test Issuer %d", nextID()),
		CIN:    fmt.Sprintf("U%020d", nextID()),
		Sector: "Technology",
	}
	if err := db.Create(issuer).Error; err != nil {
		t.Fatalf("failed to create test issuer: %v", err)
	}
	return issuer
}

// CreateTestShareClass creates an equity share class for the issuer.
func CreateTestShareClass(t *testing.T, db *gorm.DB, issuerID uint) *models.ShareClass {
	t.Helper()

	shareClass := &models.ShareClass{
		IssuerID:  issuerID,
		Name:      fmt.Sprintf("Equity %d", nextID()),
		FaceValue: decimal.NewFromInt(10),
	}
	if err := db.Create(shareClass).Error; err != nil {
		t.Fatalf("failed to create test share class: %v", err)
	}
	return shareClass
}

// CreateTestSecurityKey creates a fund, issuer and share class and returns
// the resulting key.
func CreateTestSecurityKey(t *testing.T, db *gorm.DB) models.SecurityKey {
	t.Helper()

	fund := CreateTestFund(t, db)
	issuer := CreateTestIssuer(t, db)
	shareClass := CreateTestShareClass(t, db, issuer.ID)
	return models.SecurityKey{FundID: fund.ID, IssuerID: issuer.ID, ShareClassID: shareClass.ID}
}

// CreateTestLot creates a posted purchase lot.
func CreateTestLot(t *testing.T, db *gorm.DB, key models.SecurityKey, tradeDate time.Time, quantity, unitPrice string) *models.PurchaseLot {
	t.Helper()

	lot := &models.PurchaseLot{
		SecurityKey: key,
		TradeDate:   tradeDate,
		Quantity:    Dec(t, quantity),
		UnitPrice:   Dec(t, unitPrice),
		Status:      models.TxStatusPosted,
		UniqueHash:  fmt.Sprintf("test-hash-%d", nextID()),
	}
	if err := db.Create(lot).Error; err != nil {
		t.Fatalf("failed to create test lot: %v", err)
	}
	return lot
}

// CreateTestDisposal creates a posted disposal without computed cost basis.
func CreateTestDisposal(t *testing.T, db *gorm.DB, key models.SecurityKey, tradeDate time.Time, quantity, unitPrice string) *models.Disposal {
	t.Helper()

	disposal := &models.Disposal{
		SecurityKey: key,
		TradeDate:   tradeDate,
		Quantity:    Dec(t, quantity),
		UnitPrice:   Dec(t, unitPrice),
		Status:      models.TxStatusPosted,
	}
	if err := db.Create(disposal).Error; err != nil {
		t.Fatalf("failed to create test disposal: %v", err)
	}
	return disposal
}
