package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as a JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultUnit is used when an item is created without a unit.
const DefaultUnit = "unit"

// Item is a catalog entry of a tenant.
type Item struct {
	ID        string          `json:"id"        bson:"_id"       gorm:"primaryKey;size:36"`
	TenantID  string          `json:"tenantId"  bson:"tenantId"  gorm:"size:36;not null;index"`
	Name      string          `json:"name"      bson:"name"      gorm:"size:255;not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" bson:"unitPrice" gorm:"type:decimal(12,2);not null"`
	Unit      string          `json:"unit"      bson:"unit"      gorm:"size:32;not null;default:unit"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}

func (Item) TableName() string { return "items" }
