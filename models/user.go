package models

import "time"

// PaymentMethod stores a card on file in redacted form: vendor, expiry,
// holder, last four, and a SHA-256 fingerprint for de-duplication. The full
// card number is never written anywhere.
type PaymentMethod struct {
	CardVendor      string `bson:"card_vendor" json:"card_vendor"`
	CardExpiry      string `bson:"card_expiry" json:"card_expiry"`
	CardHolderName  string `bson:"card_holder_name" json:"card_holder_name"`
	CardLastFour    string `bson:"card_last_four" json:"card_last_four"`
	CardFingerprint string `bson:"card_fingerprint" json:"-"`
}

// User is a guest account created ahead of calling in.
type User struct {
	ID               string         `bson:"id" json:"id"`
	FirstName        string         `bson:"first_name" json:"first_name"`
	LastName         string         `bson:"last_name" json:"last_name"`
	Email            string         `bson:"email" json:"email"`
	Phone            string         `bson:"phone" json:"phone"`
	Title            string         `bson:"title,omitempty" json:"title,omitempty"`
	HasPaymentMethod bool           `bson:"has_payment_method" json:"has_payment_method"`
	IsActive         bool           `bson:"is_active" json:"is_active"`
	EmailVerified    bool           `bson:"email_verified" json:"email_verified"`
	PaymentMethod    *PaymentMethod `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at" json:"updated_at"`
}
