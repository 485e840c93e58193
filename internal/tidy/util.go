package tidy

import (
	"fmt"

	"fortio.org/safecast"
)

func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("tidy: offset overflow: %w", err))
	}
	return v
}
