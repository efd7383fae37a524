package model

import "time"

// ContributionStatus is the payment state of a contribution.
type ContributionStatus string

const (
	ContributionPending ContributionStatus = "pending"
	ContributionPaid    ContributionStatus = "paid"
)

// Contribution is a payment a parent made toward the association fee.
// Only verified contributions count toward the parent's balance.
type Contribution struct {
	ID            string             `json:"id" yaml:"id"`
	ParentID      string             `json:"parentId" yaml:"parentId"`
	Amount        float64            `json:"amount" yaml:"amount"`
	Description   string             `json:"description,omitempty" yaml:"description"`
	PaymentMethod string             `json:"paymentMethod,omitempty" yaml:"paymentMethod"`
	Reference     string             `json:"reference,omitempty" yaml:"reference"`
	IsVerified    bool               `json:"isVerified" yaml:"isVerified"`
	Status        ContributionStatus `json:"status" yaml:"status"`
	VerifiedBy    *string            `json:"verifiedBy,omitempty" yaml:"verifiedBy"`
	VerifiedAt    *time.Time         `json:"verifiedAt,omitempty" yaml:"verifiedAt"`
	CreatedAt     time.Time          `json:"createdAt" yaml:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" yaml:"updatedAt"`
}
