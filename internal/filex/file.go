package filex

import (
	"errors"
	"fmt"
	"os"
)

var ErrNotRegular = errors.New("not a regular file")

// OpenRegular opens path for reading and returns it with its size. Anything
// that is not a regular file (directories, devices, sockets) is refused.
func OpenRegular(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	return f, info.Size(), nil
}
