package media

import "errors"

var (
	ErrGenerationFailed = errors.New("media generation failed")
	ErrUploadFailed     = errors.New("failed to store generated media")
)
