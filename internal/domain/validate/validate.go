// Package validate runs the ordered submission checks a bet must clear
// before it is accepted into a cycle.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/pkg/metrics"
)

// Rejection reasons reported back to the submitter. These are stable
// strings; clients and dashboards key off them.
const (
	ReasonEmptyCohort   = "empty_cohort"
	ReasonNotMember     = "not_member"
	ReasonEmptyText     = "empty_text"
	ReasonNoPrice       = "no_price"
	ReasonPriceBelowMin = "price_below_min"
	ReasonPriceAboveMax = "price_above_max"
)

// Result carries the outcome of a validation pass. Reason is empty
// when OK is true.
type Result struct {
	OK     bool
	Reason string
	Detail string
}

func reject(reason, detail string) Result {
	metrics.RecordSubmissionRejected(reason)
	return Result{Reason: reason, Detail: detail}
}

// Validator checks submissions against cohort membership and the
// cohort's odds policy.
type Validator struct {
	members  repository.MemberStore
	policies repository.PolicyStore
}

// New builds a Validator over the given stores.
func New(members repository.MemberStore, policies repository.PolicyStore) *Validator {
	return &Validator{members: members, policies: policies}
}

// Submission is the slice of a bet the validator inspects.
type Submission struct {
	CohortID string
	MemberID string
	NormText string
	Price    *int
}

// Check runs the submission checks in order and stops at the first
// failure. A missing policy falls back to accepting any price.
func (v *Validator) Check(ctx context.Context, sub Submission) (Result, error) {
	if sub.CohortID == "" {
		return reject(ReasonEmptyCohort, "cohort id is required"), nil
	}

	ok, err := v.members.IsMember(ctx, sub.CohortID, sub.MemberID)
	if err != nil {
		return Result{}, fmt.Errorf("checking membership: %w", err)
	}
	if !ok {
		return reject(ReasonNotMember, fmt.Sprintf("%s is not in cohort %s", sub.MemberID, sub.CohortID)), nil
	}

	if sub.NormText == "" {
		return reject(ReasonEmptyText, "bet text is empty after normalization"), nil
	}

	policy, err := v.policies.Policy(ctx, sub.CohortID)
	if err != nil {
		if errors.Is(err, repository.ErrNoPolicy) {
			return Result{OK: true}, nil
		}
		return Result{}, fmt.Errorf("loading policy: %w", err)
	}

	if sub.Price == nil {
		return reject(ReasonNoPrice, "cohort enforces an odds policy but the bet carries no price"), nil
	}
	if !policy.Allows(*sub.Price) {
		if *sub.Price < policy.MinPrice {
			return reject(ReasonPriceBelowMin, fmt.Sprintf("price %d is below the cohort minimum %d", *sub.Price, policy.MinPrice)), nil
		}
		return reject(ReasonPriceAboveMax, fmt.Sprintf("price %d is above the cohort maximum %d", *sub.Price, policy.MaxPrice)), nil
	}

	return Result{OK: true}, nil
}
