package domain

import "errors"

var (
	ErrSelfEvaluation      = errors.New("self evaluation is not allowed")
	ErrDuplicateEvaluation = errors.New("evaluation already recorded")
	ErrUnknownTag          = errors.New("tag does not exist or is inactive")
	ErrNotFound            = errors.New("not found")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrSelfFavorite        = errors.New("cannot add yourself to favorites")
	ErrInvalidPage         = errors.New("page must be positive and page size between 1 and 100")
	ErrInvalidTag          = errors.New("invalid tag")
	ErrDuplicateTag        = errors.New("tag name already exists")
	ErrInvalidSetting      = errors.New("invalid setting value")
)
