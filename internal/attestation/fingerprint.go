package attestation

import (
	"encoding/json"

	"reserveguard/pkg/cidutil"
	dErrors "reserveguard/pkg/domain-errors"
)

// Canonical returns the canonical byte encoding of an attestation: JSON with
// struct field order and no insignificant whitespace. Assets keep submission
// order because the order is part of what the participant attested to.
func Canonical(a Attestation) ([]byte, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode attestation")
	}
	return b, nil
}

// Fingerprint returns the content identifier of the canonical encoding.
// Action-log entries record it so an audit trail can be matched to the exact
// attestation and to the prover trace that covered it.
func Fingerprint(a Attestation) (string, error) {
	b, err := Canonical(a)
	if err != nil {
		return "", err
	}
	cid, err := cidutil.CIDv1RawSHA256(b)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "fingerprint attestation")
	}
	return cid, nil
}
