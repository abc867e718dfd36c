//go:build !linux

package region

import "errors"

func newPageLoader() (Loader, error) {
	return nil, errors.New("page loader strategy requires linux")
}

func protectRead([]byte) error { return nil }

func unmap([]byte) error { return nil }
