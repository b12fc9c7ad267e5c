package ccf

import (
	_ "crypto/sha256" // registers digest.Canonical

	"github.com/opencontainers/go-digest"
)

// Member is one named file's content.
type Member struct {
	Name string
	Data []byte
}

// Digest returns the canonical content digest of the member's data.
func (m Member) Digest() digest.Digest {
	return digest.FromBytes(m.Data)
}
