package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type PassType string

const (
	PassTypeDaily  PassType = "daily"
	PassTypeWeekly PassType = "weekly"
)

// ValidPassType reports whether t is daily or weekly.
func ValidPassType(t string) bool {
	return PassType(t) == PassTypeDaily || PassType(t) == PassTypeWeekly
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// passValidityMonths is how long an approved pass stays active, in calendar
// months (a pass approved Mar 31 expires Oct 1, per time.AddDate rollover).
const passValidityMonths = 6

// ErrInvalidState is returned by pass transitions attempted from the wrong
// state, e.g. approving an unpaid pass or rejecting an already decided one.
var ErrInvalidState = errors.New("invalid pass state for this transition")

// PassState names the lifecycle states. The persisted columns are derived from
// the state via the transition methods; State reads them back.
type PassState string

const (
	// PassRequested: created, not yet paid.
	PassRequested PassState = "requested"
	// PassAwaitingApproval: paid, waiting for an admin decision.
	PassAwaitingApproval PassState = "awaiting_approval"
	// PassApproved: approved and activated. Whether it is still usable
	// depends on ExpiresAt, which is a read-time fact, not a transition.
	PassApproved PassState = "approved"
	// PassRejected: terminal admin rejection.
	PassRejected PassState = "rejected"
)

type Pass struct {
	gorm.Model
	UserID         uint       `json:"userId" gorm:"column:user_id;not null;index"`
	RouteID        uint       `json:"routeId" gorm:"column:route_id;not null;index"`
	PassType       string     `json:"passType" gorm:"column:pass_type;not null"`
	Amount         float64    `json:"amount" gorm:"column:amount;not null"`
	PaymentStatus  string     `json:"paymentStatus" gorm:"column:payment_status;not null;default:pending"`
	ApprovalStatus string     `json:"approvalStatus" gorm:"column:approval_status;not null;default:pending"`
	IsActive       bool       `json:"isActive" gorm:"column:is_active;not null;default:false"`
	ActiveAt       *time.Time `json:"activeAt,omitempty" gorm:"column:active_at"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty" gorm:"column:expires_at"`
	User           *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Route          *Route     `json:"route,omitempty" gorm:"foreignKey:RouteID"`
}

// TableName specifies the table name
func (Pass) TableName() string {
	return "passes"
}

// NewPass creates a pass in the requested state with the amount captured from
// the route's current price for the chosen type.
func NewPass(userID uint, route *Route, passType PassType) Pass {
	return Pass{
		UserID:         userID,
		RouteID:        route.ID,
		PassType:       string(passType),
		Amount:         route.PriceFor(passType),
		PaymentStatus:  string(PaymentStatusPending),
		ApprovalStatus: string(ApprovalStatusPending),
		IsActive:       false,
	}
}

// State derives the lifecycle state from the persisted columns.
func (p *Pass) State() PassState {
	switch ApprovalStatus(p.ApprovalStatus) {
	case ApprovalStatusApproved:
		return PassApproved
	case ApprovalStatusRejected:
		return PassRejected
	}
	if PaymentStatus(p.PaymentStatus) == PaymentStatusPaid {
		return PassAwaitingApproval
	}
	return PassRequested
}

// ActiveNow reports whether the pass is approved and not yet expired at now.
func (p *Pass) ActiveNow(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// MarkPaid moves a requested pass to awaiting approval.
func (p *Pass) MarkPaid() error {
	if p.State() != PassRequested {
		return ErrInvalidState
	}
	p.PaymentStatus = string(PaymentStatusPaid)
	return nil
}

// Approve activates a paid pass. The approval status, active flag and both
// timestamps change together; callers must persist them in a single update.
func (p *Pass) Approve(now time.Time) error {
	if p.State() != PassAwaitingApproval {
		return ErrInvalidState
	}
	expires := now.AddDate(0, passValidityMonths, 0)
	p.ApprovalStatus = string(ApprovalStatusApproved)
	p.IsActive = true
	p.ActiveAt = &now
	p.ExpiresAt = &expires
	return nil
}

// Reject declines a paid pass. ActiveAt and ExpiresAt stay untouched.
func (p *Pass) Reject() error {
	if p.State() != PassAwaitingApproval {
		return ErrInvalidState
	}
	p.ApprovalStatus = string(ApprovalStatusRejected)
	p.IsActive = false
	return nil
}
