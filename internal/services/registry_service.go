package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundledger/internal/errors"
	"fundledger/internal/models"
	"fundledger/internal/pagination"
)

// registryService maintains the fund/issuer/share-class registries that a
// security key resolves against.
type registryService struct {
	db *gorm.DB
}

// NewRegistryService creates a new RegistryServicer.
func NewRegistryService(db *gorm.DB) RegistryServicer {
	return &registryService{db: db}
}

// CreateFund registers a fund.
func (s *registryService) CreateFund(name, registrationNumber, currency string) (*models.Fund, error) {
	if currency == "" {
		currency = "INR"
	}
	fund := &models.Fund{
		Name:               name,
		RegistrationNumber: registrationNumber,
		Currency:           currency,
	}
	if err := s.db.Create(fund).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fund, nil
}

// GetFundByID returns a fund.
func (s *registryService) GetFundByID(fundID uint) (*models.Fund, error) {
	var fund models.Fund
	if err := s.db.First(&fund, fundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFundNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fund, nil
}

// ListFunds returns a paginated list of funds.
func (s *registryService) ListFunds(page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Fund{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var funds []models.Fund
	if err := s.db.Order("id ASC").Scopes(pagination.Paginate(page)).Find(&funds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(funds, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CreateIssuer registers an investee company.
func (s *registryService) CreateIssuer(name, cin, sector string) (*models.Issuer, error) {
	issuer := &models.Issuer{Name: name, CIN: cin, Sector: sector}
	if err := s.db.Create(issuer).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return issuer, nil
}

// ListIssuers returns a paginated list of issuers.
func (s *registryService) ListIssuers(page pagination.PageRequest) (*pagination.PageResponse[models.Issuer], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Issuer{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var issuers []models.Issuer
	if err := s.db.Order("id ASC").Scopes(pagination.Paginate(page)).Find(&issuers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(issuers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CreateShareClass registers one class of an issuer's shares.
func (s *registryService) CreateShareClass(issuerID uint, name string, faceValue decimal.Decimal) (*models.ShareClass, error) {
	var issuer models.Issuer
	if err := s.db.First(&issuer, issuerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIssuerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !faceValue.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Face value must be a positive number")
	}

	shareClass := &models.ShareClass{
		IssuerID:  issuerID,
		Name:      name,
		FaceValue: faceValue,
	}
	if err := s.db.Create(shareClass).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return shareClass, nil
}

// ListShareClasses returns a paginated list of an issuer's share classes.
func (s *registryService) ListShareClasses(issuerID uint, page pagination.PageRequest) (*pagination.PageResponse[models.ShareClass], error) {
	var issuer models.Issuer
	if err := s.db.First(&issuer, issuerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIssuerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	page.Defaults()

	base := s.db.Model(&models.ShareClass{}).Where("issuer_id = ?", issuerID)
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var classes []models.ShareClass
	if err := base.Order("id ASC").Scopes(pagination.Paginate(page)).Find(&classes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(classes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ResolveSecurityKey verifies every leg of the key: the fund and issuer must
// exist, and the share class must exist and belong to the key's issuer.
func (s *registryService) ResolveSecurityKey(key models.SecurityKey) error {
	var fund models.Fund
	if err := s.db.First(&fund, key.FundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrFundNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var issuer models.Issuer
	if err := s.db.First(&issuer, key.IssuerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrIssuerNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var shareClass models.ShareClass
	if err := s.db.First(&shareClass, key.ShareClassID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrShareClassNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if shareClass.IssuerID != key.IssuerID {
		return apperrors.ErrSecurityKeyNotFound
	}
	return nil
}
