package domain

// Hasher fingerprints secrets so they can be compared without keeping the
// raw value around.
type Hasher interface {
	Hash(data []byte) string
}
