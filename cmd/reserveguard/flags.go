package main

import (
	"strings"

	"reserveguard/internal/attestation"
)

// assetFlags collects repeated --asset values. They are parsed after the flag
// set so a malformed spec is reported as a validation error, not as usage.
type assetFlags []string

func (a *assetFlags) String() string {
	return strings.Join(*a, " ")
}

func (a *assetFlags) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func (a assetFlags) parse() ([]attestation.AssetReserve, error) {
	reserves := make([]attestation.AssetReserve, 0, len(a))
	for _, spec := range a {
		reserve, err := attestation.ParseAssetSpec(spec)
		if err != nil {
			return nil, err
		}
		reserves = append(reserves, reserve)
	}
	return reserves, nil
}

// amountsFlag remembers whether it was given so an empty --liabilities still
// selects solvency mode.
type amountsFlag struct {
	set bool
	raw string
}

func (f *amountsFlag) String() string {
	return f.raw
}

func (f *amountsFlag) Set(v string) error {
	f.set = true
	f.raw = v
	return nil
}

func (f amountsFlag) parse() ([]uint64, error) {
	return attestation.ParseAmounts(f.raw)
}
