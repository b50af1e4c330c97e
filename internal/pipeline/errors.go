package pipeline

import "errors"

var (
	ErrGeneratorCreationFailed = errors.New("failed to create sample generator")
	ErrDetectorCreationFailed  = errors.New("failed to create anomaly detector")
	ErrGeneratorRunFailed      = errors.New("generator component failed")
)
