package mongo

import (
	"fmt"
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

// escrowHolder is the holder of deposit documents in the stock collection.
const escrowHolder = "escrow"

// singletonID is the _id of the only settings document.
const singletonID = "settings"

// ==================== Settings models ====================

type settingsModel struct {
	grove.BaseModel `grove:"table:provenance_settings"`

	ID                 string    `grove:"id,pk"               bson:"_id"`
	Admin              string    `grove:"admin"               bson:"admin"`
	RegistryAccount    string    `grove:"registry_account"    bson:"registry_account"`
	DepositAccount     string    `grove:"deposit_account"     bson:"deposit_account"`
	EnrollmentFee      int64     `grove:"enrollment_fee"      bson:"enrollment_fee"`
	EnrollmentCurrency string    `grove:"enrollment_currency" bson:"enrollment_currency"`
	DepositFee         int64     `grove:"deposit_fee"         bson:"deposit_fee"`
	DepositCurrency    string    `grove:"deposit_currency"    bson:"deposit_currency"`
	MaxStock           int64     `grove:"max_stock"           bson:"max_stock"`
	CreatedAt          time.Time `grove:"created_at"          bson:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"          bson:"updated_at"`
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

	Account   string    `grove:"account,pk" bson:"_id"`
	Name      string    `grove:"name"       bson:"name"`
	Enrolled  bool      `grove:"enrolled"   bson:"enrolled"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
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

	ID          int64     `grove:"id,pk"       bson:"_id"`
	Name        string    `grove:"name"        bson:"name"`
	Description string    `grove:"description" bson:"description"`
	Attribute   int64     `grove:"attribute"   bson:"attribute"`
	Producer    string    `grove:"producer"    bson:"producer"`
	CreatedAt   time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
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

// stockModel is one document of the stock collection, keyed by
// "holder/product_id". Escrow documents count deposits, withdrawals and
// transfers in received, released and transferred; shelf documents count
// receipts from escrow and sales.
type stockModel struct {
	grove.BaseModel `grove:"table:provenance_stock"`

	Key         string    `grove:"key,pk"      bson:"_id"`
	Holder      string    `grove:"holder"      bson:"holder"`
	ProductID   int64     `grove:"product_id"  bson:"product_id"`
	Stock       int64     `grove:"stock"       bson:"stock"`
	Received    int64     `grove:"received"    bson:"received"`
	Released    int64     `grove:"released"    bson:"released"`
	Transferred int64     `grove:"transferred" bson:"transferred"`
	UpdatedAt   time.Time `grove:"updated_at"  bson:"updated_at"`
}

func stockKey(holder string, productID product.ID) string {
	return fmt.Sprintf("%s/%d", holder, uint64(productID))
}

func emptyStockModel(holder string, productID product.ID) *stockModel {
	return &stockModel{
		Key:       stockKey(holder, productID),
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

	Producer  string    `grove:"producer,pk" bson:"_id"`
	StoreID   string    `grove:"store_id"    bson:"store_id"`
	CreatedAt time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"  bson:"updated_at"`
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

	ID            string    `grove:"id,pk"          bson:"_id"`
	Owner         string    `grove:"owner"          bson:"owner"`
	PriceAmount   int64     `grove:"price_amount"   bson:"price_amount"`
	PriceCurrency string    `grove:"price_currency" bson:"price_currency"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
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
