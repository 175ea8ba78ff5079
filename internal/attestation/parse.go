package attestation

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	dErrors "reserveguard/pkg/domain-errors"
)

// ParseAmounts parses a comma-separated list of unsigned amounts ("40,50").
// An empty string yields an empty, non-nil list. Any element that is not a
// base-10 uint64 rejects the whole list.
func ParseAmounts(s string) ([]uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []uint64{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "invalid amount %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseAssetSpec parses "ASSET=b1,b2,...:THRESHOLD", for example
// "btc=40,50:100". The threshold may be omitted ("btc=40,50") for solvency
// claims, where thresholds are ignored.
func ParseAssetSpec(spec string) (AssetReserve, error) {
	name, rest, ok := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return AssetReserve{}, dErrors.Newf(dErrors.CodeValidation, "invalid asset spec %q: want ASSET=b1,b2[:threshold]", spec)
	}

	balancesPart, thresholdPart, hasThreshold := strings.Cut(rest, ":")
	balances, err := ParseAmounts(balancesPart)
	if err != nil {
		return AssetReserve{}, err
	}

	reserve := AssetReserve{Asset: name, Balances: balances}
	if hasThreshold {
		threshold, err := strconv.ParseUint(strings.TrimSpace(thresholdPart), 10, 64)
		if err != nil {
			return AssetReserve{}, dErrors.Newf(dErrors.CodeValidation, "invalid threshold %q for %s", thresholdPart, name)
		}
		reserve.Threshold = threshold
	}
	return reserve, nil
}

// Decode reads a JSON attestation document. Unknown fields, negative or
// fractional amounts and trailing data are validation errors.
func Decode(r io.Reader) (Attestation, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var a Attestation
	if err := dec.Decode(&a); err != nil {
		return Attestation{}, dErrors.Wrap(err, dErrors.CodeValidation, "decode attestation")
	}
	if _, err := dec.Token(); err != io.EOF {
		return Attestation{}, dErrors.New(dErrors.CodeValidation, "decode attestation: trailing data")
	}
	return a, nil
}
