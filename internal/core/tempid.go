package core

import (
	"github.com/google/uuid"

	"github.com/adamavenir/parley/internal/types"
)

// NewTempID generates a provisional id for an optimistic entry. The prefix
// marks it as local-only until the durable row supersedes it.
func NewTempID() string {
	return types.TempIDPrefix + uuid.NewString()
}

// LabelName trims the domain from an email-style display label, matching how
// the message list renders authors.
func LabelName(label string) string {
	for i := 0; i < len(label); i++ {
		if label[i] == '@' {
			return label[:i]
		}
	}
	return label
}
