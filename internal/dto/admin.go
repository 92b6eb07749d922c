package dto

import "github.com/SscSPs/schoolbooks/internal/core/domain"

// VerifyBalancesResponse reports the outcome of a balance verification.
type VerifyBalancesResponse struct {
	AsOf       string                `json:"asOf"`
	Consistent bool                  `json:"consistent"`
	Drifts     []domain.BalanceDrift `json:"drifts"`
}
