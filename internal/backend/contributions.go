package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/rules"
)

// ContributionInput records a payment.
type ContributionInput struct {
	Amount        float64 `json:"amount"`
	Description   string  `json:"description" validate:"max=500"`
	PaymentMethod string  `json:"paymentMethod" validate:"max=50"`
	Reference     string  `json:"reference" validate:"max=100"`
}

// GetAllContributions lists payments; filters: parentId, status, isVerified, paymentMethod.
func (b *Backend) GetAllContributions(ctx context.Context, p query.Params) envelope.Response[envelope.List[model.Contribution]] {
	return run(ctx, b, "GetAllContributions", "Contributions retrieved successfully", func() (envelope.List[model.Contribution], error) {
		return list("contributions", contributionQuery, b.st.Contributions.All(), p)
	})
}

// CreateContribution records an unverified payment from a parent.
func (b *Backend) CreateContribution(ctx context.Context, parentID string, in ContributionInput) envelope.Response[model.Contribution] {
	return run(ctx, b, "CreateContribution", "Contribution recorded successfully", func() (model.Contribution, error) {
		if err := b.validate.Struct(in); err != nil {
			return model.Contribution{}, err
		}
		if _, err := b.parent(parentID); err != nil {
			return model.Contribution{}, err
		}
		now := b.st.Now()
		c := model.Contribution{
			ID:            b.st.NewID(),
			ParentID:      parentID,
			Amount:        rules.Money(in.Amount),
			Description:   strings.TrimSpace(in.Description),
			PaymentMethod: strings.TrimSpace(in.PaymentMethod),
			Reference:     strings.TrimSpace(in.Reference),
			Status:        model.ContributionPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := b.contributions.Check(c); err != nil {
			return model.Contribution{}, err
		}
		if err := b.st.Contributions.Insert(c, nil); err != nil {
			return model.Contribution{}, err
		}
		return c, nil
	})
}

// VerifyContribution confirms a payment so it counts toward the balance.
func (b *Backend) VerifyContribution(ctx context.Context, id, verifierID string) envelope.Response[model.Contribution] {
	return run(ctx, b, "VerifyContribution", "Contribution verified successfully", func() (model.Contribution, error) {
		c, err := update(b.st.Contributions, id, func(c *model.Contribution) error {
			if c.IsVerified {
				return envelope.Conflict("contribution %s is already verified", c.ID)
			}
			now := b.st.Now()
			c.IsVerified = true
			c.Status = model.ContributionPaid
			c.VerifiedBy = optional(verifierID)
			c.VerifiedAt = &now
			c.UpdatedAt = now
			return nil
		})
		if err != nil {
			return model.Contribution{}, err
		}
		b.notify(ctx, queue.Event{
			Type:       queue.ContributionVerified,
			RefID:      c.ID,
			Recipients: []string{c.ParentID},
			Title:      "Contribution verified",
			Body:       fmt.Sprintf("Your payment of %.2f has been verified.", c.Amount),
		})
		return c, nil
	})
}

// GetMyBalance returns the parent's paid, pending and outstanding amounts.
func (b *Backend) GetMyBalance(ctx context.Context, parentID string) envelope.Response[rules.Balance] {
	return run(ctx, b, "GetMyBalance", "Balance retrieved successfully", func() (rules.Balance, error) {
		if _, err := get(b.st.Users, parentID); err != nil {
			return rules.Balance{}, err
		}
		return b.eligibility(parentID).Balance, nil
	})
}
