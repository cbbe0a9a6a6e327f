package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the header of a sale. TotalAmount equals the sum of its
// lines' amounts; the service computes both.
type Purchase struct {
	ID          string          `json:"id"          bson:"_id"         gorm:"primaryKey;size:36"`
	TenantID    string          `json:"tenantId"    bson:"tenantId"    gorm:"size:36;not null;index"`
	BuyerID     string          `json:"buyerId"     bson:"buyerId"     gorm:"size:36;not null;index"`
	PurchasedAt time.Time       `json:"purchasedAt" bson:"purchasedAt" gorm:"not null;index"`
	TotalAmount decimal.Decimal `json:"totalAmount" bson:"totalAmount" gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `json:"createdAt"   bson:"createdAt"`

	// Resolved on read, never stored.
	Tenant *PartyRef       `json:"tenant,omitempty" bson:"-" gorm:"-"`
	Buyer  *PartyRef       `json:"buyer,omitempty"  bson:"-" gorm:"-"`
	Lines  []*PurchaseLine `json:"lines,omitempty"  bson:"-" gorm:"-"`
}

func (Purchase) TableName() string { return "purchases" }

// PurchaseLine is one item × quantity row of a purchase. UnitPrice is the
// price at the time of sale.
type PurchaseLine struct {
	ID         string          `json:"id"         bson:"_id"        gorm:"primaryKey;size:36"`
	PurchaseID string          `json:"purchaseId" bson:"purchaseId" gorm:"size:36;not null;index"`
	ItemID     string          `json:"itemId"     bson:"itemId"     gorm:"size:36;not null;index"`
	Quantity   int             `json:"quantity"   bson:"quantity"   gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unitPrice"  bson:"unitPrice"  gorm:"type:decimal(12,2);not null"`
	Amount     decimal.Decimal `json:"amount"     bson:"amount"     gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time       `json:"createdAt"  bson:"createdAt"`
}

func (PurchaseLine) TableName() string { return "purchase_lines" }
