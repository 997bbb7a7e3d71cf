package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
	"github.com/xraph/provenance/types"
)

// escrowHolder is the holder of deposit rows in the stock table. Shelf
// rows are held by a store id, which always carries the "shop" prefix.
const escrowHolder = "escrow"

// singletonID is the primary key of the only settings row.
const singletonID = 1

// ==================== Settings models ====================

type settingsModel struct {
	grove.BaseModel `grove:"table:provenance_settings"`

	ID                 int       `grove:"id,pk"`
	Admin              string    `grove:"admin"`
	RegistryAccount    string    `grove:"registry_account"`
	DepositAccount     string    `grove:"deposit_account"`
	EnrollmentFee      int64     `grove:"enrollment_fee"`
	EnrollmentCurrency string    `grove:"enrollment_currency"`
	DepositFee         int64     `grove:"deposit_fee"`
	DepositCurrency    string    `grove:"deposit_currency"`
	MaxStock           int64     `grove:"max_stock"`
	CreatedAt          time.Time `grove:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"`
}

func toSettingsModel(s *settings.Settings) *settingsModel {
	return &settingsModel{
		ID:                 singletonID,
		Admin:              s.Admin.String(),
		RegistryAccount:    s.RegistryAccount.String(),
		DepositAccount:     s.DepositAccount.String(),
		EnrollmentFee:      s.EnrollmentFee.Amount,
		EnrollmentCurrency: s.EnrollmentFee.Currency,
		DepositFee:         s.Deposit.FeePerUnit.Amount,
		DepositCurrency:    s.Deposit.FeePerUnit.Currency,
		MaxStock:           s.Deposit.MaxStock,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func fromSettingsModel(m *settingsModel) (*settings.Settings, error) {
	admin, err := id.ParseAccountID(m.Admin)
	if err != nil {
		return nil, err
	}
	registry, err := id.ParseAccountID(m.RegistryAccount)
	if err != nil {
		return nil, err
	}
	escrow, err := id.ParseAccountID(m.DepositAccount)
	if err != nil {
		return nil, err
	}
	return &settings.Settings{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Admin:           admin,
		RegistryAccount: registry,
		DepositAccount:  escrow,
		EnrollmentFee:   types.Money{Amount: m.EnrollmentFee, Currency: m.EnrollmentCurrency},
		Deposit: deposit.Settings{
			FeePerUnit: types.Money{Amount: m.DepositFee, Currency: m.DepositCurrency},
			MaxStock:   m.MaxStock,
		},
	}, nil
}

// ==================== Producer models ====================

type producerModel struct {
	grove.BaseModel `grove:"table:provenance_producers"`

	Account   string    `grove:"account,pk"`
	Name      string    `grove:"name"`
	Enrolled  bool      `grove:"enrolled"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toProducerModel(p *producer.Producer) *producerModel {
	return &producerModel{
		Account:   p.Account.String(),
		Name:      p.Name,
		Enrolled:  p.Enrolled,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromProducerModel(m *producerModel) (*producer.Producer, error) {
	account, err := id.ParseAccountID(m.Account)
	if err != nil {
		return nil, err
	}
	return &producer.Producer{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Account:  account,
		Name:     m.Name,
		Enrolled: m.Enrolled,
	}, nil
}

// ==================== Product models ====================

type productModel struct {
	grove.BaseModel `grove:"table:provenance_products"`

	ID          int64     `grove:"id,pk"`
	Name        string    `grove:"name"`
	Description string    `grove:"description"`
	Attribute   int64     `grove:"attribute"`
	Producer    string    `grove:"producer"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toProductModel(p *product.Product) *productModel {
	return &productModel{
		ID:          int64(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Attribute:   p.Attribute,
		Producer:    p.Producer.String(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*product.Product, error) {
	owner, err := id.ParseAccountID(m.Producer)
	if err != nil {
		return nil, err
	}
	return &product.Product{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          product.ID(m.ID),
		Name:        m.Name,
		Description: m.Description,
		Attribute:   m.Attribute,
		Producer:    owner,
		Registered:  true,
	}, nil
}

// ==================== Stock models ====================

// stockModel is one row of the stock table. For escrow rows received,
// released and transferred count deposits, withdrawals and transfers to
// stores; for shelf rows they count receipts from escrow and sales.
type stockModel struct {
	grove.BaseModel `grove:"table:provenance_stock"`

	Holder      string    `grove:"holder,pk"`
	ProductID   int64     `grove:"product_id,pk"`
	Stock       int64     `grove:"stock"`
	Received    int64     `grove:"received"`
	Released    int64     `grove:"released"`
	Transferred int64     `grove:"transferred"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func emptyStockModel(holder string, productID product.ID) *stockModel {
	return &stockModel{
		Holder:    holder,
		ProductID: int64(productID),
		UpdatedAt: now(),
	}
}

func toDepositRecord(m *stockModel) *deposit.Record {
	return &deposit.Record{
		ProductID:   product.ID(m.ProductID),
		Stock:       m.Stock,
		Deposited:   m.Received,
		Withdrawn:   m.Released,
		Transferred: m.Transferred,
	}
}

func toShelf(storeID id.StoreID, m *stockModel) *retail.Shelf {
	return &retail.Shelf{
		StoreID:   storeID,
		ProductID: product.ID(m.ProductID),
		Stock:     m.Stock,
		Received:  m.Received,
		Sold:      m.Released,
	}
}

// ==================== Authorization models ====================

type authorizationModel struct {
	grove.BaseModel `grove:"table:provenance_authorizations"`

	Producer  string    `grove:"producer,pk"`
	StoreID   string    `grove:"store_id"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toAuthorizationModel(a *deposit.Authorization) *authorizationModel {
	return &authorizationModel{
		Producer:  a.Producer.String(),
		StoreID:   a.Store.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAuthorizationModel(m *authorizationModel) (*deposit.Authorization, error) {
	owner, err := id.ParseAccountID(m.Producer)
	if err != nil {
		return nil, err
	}
	storeID, err := id.ParseStoreID(m.StoreID)
	if err != nil {
		return nil, err
	}
	return &deposit.Authorization{
		Entity:   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Producer: owner,
		Store:    storeID,
	}, nil
}

// ==================== Retail store models ====================

type retailStoreModel struct {
	grove.BaseModel `grove:"table:provenance_retail_stores"`

	ID            string    `grove:"id,pk"`
	Owner         string    `grove:"owner"`
	PriceAmount   int64     `grove:"price_amount"`
	PriceCurrency string    `grove:"price_currency"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toRetailStoreModel(s *retail.Store) *retailStoreModel {
	return &retailStoreModel{
		ID:            s.ID.String(),
		Owner:         s.Owner.String(),
		PriceAmount:   s.PricePerUnit.Amount,
		PriceCurrency: s.PricePerUnit.Currency,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromRetailStoreModel(m *retailStoreModel) (*retail.Store, error) {
	storeID, err := id.ParseStoreID(m.ID)
	if err != nil {
		return nil, err
	}
	owner, err := id.ParseAccountID(m.Owner)
	if err != nil {
		return nil, err
	}
	return &retail.Store{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           storeID,
		Owner:        owner,
		PricePerUnit: types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
	}, nil
}

func now() time.Time {
	return time.Now().UTC()
}
