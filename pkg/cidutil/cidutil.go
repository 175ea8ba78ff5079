package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns a CIDv1 (raw multicodec, sha2-256 multihash) for data.
func CIDv1RawSHA256(data []byte) (string, error) {
	c, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// CIDv1RawSHA256CID returns the CIDv1 value itself.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify reports whether s is the CIDv1 raw sha2-256 of data.
func Verify(s string, data []byte) (bool, error) {
	want, err := cid.Decode(s)
	if err != nil {
		return false, err
	}
	got, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return false, err
	}
	return want.Equals(got), nil
}
