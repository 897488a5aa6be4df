// Package signing attaches a verifiable signature to consensus documents
// before they are persisted, so downstream consumers (settlement
// contracts, auditors) can prove a result came from this oracle.
package signing

// Signer signs the canonical JSON of a finished result.
type Signer interface {
	Sign(canonicalJSON []byte) (signature, publicKey string, err error)
}

// Passthrough attaches nothing. Used when no signing key is configured.
type Passthrough struct{}

func (Passthrough) Sign([]byte) (string, string, error) { return "", "", nil }
