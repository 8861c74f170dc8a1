package tool

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateReceipt returns a short gateway receipt reference (max 40 chars).
func GenerateReceipt(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(GenerateUUIDV7(), "-", "")[:24]
}
