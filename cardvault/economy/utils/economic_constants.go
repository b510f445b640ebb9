package utils

import "time"

const (
	DefaultTxTimeout = 30 * time.Second // Default transaction timeout
)
