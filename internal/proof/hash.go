package proof

// PayloadVersion tags the proof payload layout. Bumping it changes every
// proof hash, so treat it as part of the wire format.
const PayloadVersion = "v1"

// Payload is the versioned record whose SHA-256 hash is its immutable
// identity. External verifiers rebuild it from canonical inputs and compare
// digests.
type Payload struct {
	Version      string            `json:"version"`
	ContentID    string            `json:"contentId"`
	SplitVersion int               `json:"splitVersion"`
	ManifestHash string            `json:"manifestHash"`
	Splits       []NormalizedSplit `json:"splits"`
	CreatorID    *string           `json:"creatorId"`
}

// NewPayload assembles a v1 proof payload with splits in canonical order.
func NewPayload(contentID string, splitVersion int, manifestHash string, splits []NormalizedSplit, creatorID *string) Payload {
	return Payload{
		Version:      PayloadVersion,
		ContentID:    contentID,
		SplitVersion: splitVersion,
		ManifestHash: manifestHash,
		Splits:       NormalizeSplitsForProof(splits),
		CreatorID:    copyString(creatorID),
	}
}

// ComputeSplitsHash digests the canonical serialization of the splits.
func ComputeSplitsHash(splits []NormalizedSplit) (string, error) {
	serialized, err := StableStringify(NormalizeSplitsForProof(splits), false)
	if err != nil {
		return "", err
	}
	return SHA256Hex([]byte(serialized)), nil
}

// ComputeManifestHash digests the canonical serialization of a manifest.
func ComputeManifestHash(manifest any) (string, error) {
	serialized, err := StableStringify(manifest, false)
	if err != nil {
		return "", err
	}
	return SHA256Hex([]byte(serialized)), nil
}

// ComputeProofHash digests the canonical serialization of the full payload.
func ComputeProofHash(payload Payload) (string, error) {
	payload.Splits = NormalizeSplitsForProof(payload.Splits)
	serialized, err := StableStringify(payload, false)
	if err != nil {
		return "", err
	}
	return SHA256Hex([]byte(serialized)), nil
}
