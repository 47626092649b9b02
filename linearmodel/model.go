// Package linearmodel fits the penalized linear regressions behind the forecast model. A
// lambda of zero reduces the lasso to ordinary least squares.
package linearmodel

import "errors"

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrTargetLenMismatch  = errors.New("target rows do not match training rows")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("design matrix columns do not match fitted coefficients")
)
