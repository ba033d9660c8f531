package core

import "errors"

var (
	ErrUnknownSession          = errors.New("unknown quiz session")
	ErrSessionCompleted        = errors.New("quiz session already completed")
	ErrInvalidBadgeType        = errors.New("invalid badge type")
	ErrInsufficientTokens      = errors.New("insufficient tokens")
	ErrTokenDeductionFailed    = errors.New("token deduction failed")
	ErrChainSubmissionFailed   = errors.New("chain submission failed")
	ErrPublicationFailed       = errors.New("credential publication failed")
	ErrRecordPersistenceFailed = errors.New("credential record persistence failed")

	ErrInvalidAmount        = errors.New("invalid token amount")
	ErrInvalidAddress       = errors.New("invalid ethereum address")
	ErrInvalidAnswer        = errors.New("invalid answer index")
	ErrMissingField         = errors.New("missing required field")
	ErrAssetMissing         = errors.New("render asset missing")
	ErrUploadFailed         = errors.New("content upload failed")
	ErrStoreOperationFailed = errors.New("store operation failed")
	ErrChainReadFailed      = errors.New("chain read failed")
)
