//go:build !windows

package labels

import "fmt"

// SPC10 が使えない環境向けのスタブ。
func Print(data []LabelRow, p PrintParams) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: no books selected", ErrNoPrintableSelected)
	}
	return fmt.Errorf("%w: label printing requires Windows with SPC10 installed", ErrSPC10NotFound)
}
