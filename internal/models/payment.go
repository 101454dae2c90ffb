package models

import (
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// Payment is one ledger entry against a pass. The amount is copied from the
// pass at payment time; the ledger is append-only except for the admin delete
// cascade, which removes a pass together with its payments.
type Payment struct {
	gorm.Model
	PassID        uint    `json:"passId" gorm:"column:pass_id;not null;index"`
	Amount        float64 `json:"amount" gorm:"column:amount;not null"`
	PaymentMethod string  `json:"paymentMethod" gorm:"column:payment_method;not null"`
	TransactionID string  `json:"transactionId" gorm:"column:transaction_id;unique;not null"`
	Status        string  `json:"status" gorm:"column:status;not null;default:success"`
	Pass          *Pass   `json:"pass,omitempty" gorm:"foreignKey:PassID"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}
