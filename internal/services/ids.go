package services

import "github.com/google/uuid"

// IDScheme derives the store id used when a catalog definition has to be
// written to the store. Implementations must be deterministic: the same key
// always yields the same id, across processes and releases.
type IDScheme interface {
	ID(key string) string
}

// IDSchemeFunc adapts a plain function to IDScheme.
type IDSchemeFunc func(key string) string

// ID implements IDScheme.
func (f IDSchemeFunc) ID(key string) string { return f(key) }

// achievementNamespace is the UUIDv5 namespace for KeyIDv1. Never change it:
// seeded rows in existing stores carry ids derived from it.
var achievementNamespace = uuid.MustParse("6f1c2b9e-3d4a-5e8f-9a0b-1c2d3e4f5a6b")

// KeyIDv1 maps a key to the name-based UUID (version 5, SHA-1) of
// "achievement:" + key in achievementNamespace.
var KeyIDv1 IDScheme = IDSchemeFunc(func(key string) string {
	return uuid.NewSHA1(achievementNamespace, []byte("achievement:"+key)).String()
})
