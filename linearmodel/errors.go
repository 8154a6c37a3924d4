package linearmodel

import "errors"

var (
	ErrNoOptions          = errors.New("no model options")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix")
	ErrTargetLenMismatch  = errors.New("target length does not match target matrix")
	ErrFeatureLenMismatch = errors.New("number of features does not match coefficients")
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
	ErrWarmStartBetaSize  = errors.New("warm start beta does not have the same number of coefficients as training features")
)
