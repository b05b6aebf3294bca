package partner

import "errors"

var (
	ErrInvalidPartner   = errors.New("PARTNER_VALIDATION_FAILED")
	ErrPartnerNotFound  = errors.New("PARTNER_NOT_FOUND")
	ErrDuplicatePartner = errors.New("DUPLICATE_PARTNER")
	ErrUnknownDimension = errors.New("INVALID_DIMENSION")
	ErrUnknownMetric    = errors.New("INVALID_METRIC")
	ErrUnknownPolicy    = errors.New("INVALID_TIER_POLICY")
)
