package models

import "time"

// Tenant is a retail client. Every account except the super-admin, every
// item and every purchase belongs to exactly one tenant.
type Tenant struct {
	ID        string    `json:"id"          bson:"_id"         gorm:"primaryKey;size:36"`
	Name      string    `json:"name"        bson:"name"        gorm:"size:255;not null;index"`
	OwnerName string    `json:"ownerName"   bson:"ownerName"   gorm:"size:255;not null"`
	Phone     string    `json:"phoneNumber" bson:"phoneNumber" gorm:"column:phone_number;size:32;not null"`
	Email     string    `json:"email"       bson:"email"       gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt"   bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"   bson:"updatedAt"`
}

func (Tenant) TableName() string { return "tenants" }

func (t *Tenant) Ref() *PartyRef {
	return &PartyRef{ID: t.ID, Name: t.Name}
}
