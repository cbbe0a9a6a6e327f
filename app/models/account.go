package models

import (
	"time"

	"github.com/shashiranjanraj/billdesk/pkg/rbac"
)

// Account is any principal: super-admin, tenant admin, staff or customer.
// Customers carry an RFID card instead of a credential.
type Account struct {
	ID           string    `json:"id"                   bson:"_id"                    gorm:"primaryKey;size:36"`
	TenantID     string    `json:"tenantId,omitempty"   bson:"tenantId,omitempty"     gorm:"size:36;index"`
	Name         string    `json:"name"                 bson:"name"                   gorm:"size:255;not null"`
	Email        string    `json:"email,omitempty"      bson:"email,omitempty"        gorm:"size:255;index"`
	Phone        string    `json:"phoneNumber"          bson:"phoneNumber"            gorm:"column:phone_number;size:32;index"`
	PasswordHash string    `json:"-"                    bson:"passwordHash,omitempty" gorm:"size:255"`
	Role         rbac.Role `json:"role"                 bson:"role"                   gorm:"size:32;not null;index"`
	RFIDCardID   string    `json:"rfidCardId,omitempty" bson:"rfidCardId,omitempty"   gorm:"column:rfid_card_id;size:64;index"`
	CreatedAt    time.Time `json:"createdAt"            bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"            bson:"updatedAt"`
}

func (Account) TableName() string { return "accounts" }

// Ref returns the display reference embedded in purchases.
func (a *Account) Ref() *PartyRef {
	return &PartyRef{ID: a.ID, Name: a.Name, Email: a.Email}
}

// PartyRef is the resolved display form of a tenant or buyer reference.
type PartyRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
