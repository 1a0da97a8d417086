package models

import "time"

// Method types. The column is free text; these are the labels the
// spreadsheet columns map onto.
const (
	MethodPhone   = "phone"
	MethodEmail   = "email"
	MethodSocial  = "social"
	MethodAddress = "address"
)

// MethodTypes lists the known labels in spreadsheet column order.
var MethodTypes = []string{MethodPhone, MethodEmail, MethodSocial, MethodAddress}

type Contact struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Bookmarked bool            `gorm:"not null;default:false" json:"bookmarked"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	Methods    []ContactMethod `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE" json:"methods"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Contact) TableName() string { return "contact" }

// MethodValues returns the values of every method of type t, in stored order.
func (c *Contact) MethodValues(t string) []string {
	var out []string
	for _, m := range c.Methods {
		if m.Type == t {
			out = append(out, m.Value)
		}
	}
	return out
}

type ContactMethod struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ContactID uint   `gorm:"index;not null" json:"contact_id"`
	Type      string `gorm:"size:30;not null" json:"type"`
	Value     string `gorm:"size:200;not null" json:"value"`
}

func (ContactMethod) TableName() string { return "contact_method" }

// All returns every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{&User{}, &Contact{}, &ContactMethod{}}
}
