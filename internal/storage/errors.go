package storage

import "reserveguard/pkg/platform/sentinel"

// ErrNotFound keeps absent-document reporting consistent across backends.
var ErrNotFound = sentinel.ErrNotFound
