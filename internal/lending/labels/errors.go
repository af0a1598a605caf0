package labels

import "errors"

var (
	ErrTemplateNotFound    = errors.New("template not found")
	ErrTapeSizeNotMatched  = errors.New("tape size not matched")
	ErrSPC10NotFound       = errors.New("SPC10.exe not found")
	ErrNoPrintableSelected = errors.New("no printable books selected")
)
