//go:build !linux

package poller

// New 在非 Linux 平台返回 ErrNotSupported
func New(capacityHint int) (Poller, error) {
	_ = capacityHint
	return nil, ErrNotSupported
}
