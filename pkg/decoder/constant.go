package decoder

import "errors"

var (
	ErrIncompleteData        = errors.New("incomplete register data")
	ErrUnsupportedWordCount  = errors.New("unsupported register word count")
	ErrUnsupportedAccessKind = errors.New("unsupported access kind")
)
