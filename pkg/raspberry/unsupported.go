//go:build !linux
// +build !linux

package raspberry

func openMem() (GPIO, error) {
	return nil, ErrUnsupported
}

func openChip(string) (GPIO, error) {
	return nil, ErrUnsupported
}
