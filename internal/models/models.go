package models

import "time"

// Principal is the opaque ledger identifier of a video uploader. The gateway
// never inspects it; it is carried through from the actor and rendered as-is.
type Principal string

func (p Principal) String() string { return string(p) }

// VideoSummary is one entry in the video directory as returned by the backend
// actor. A fetch replaces the whole collection; entries are never merged.
type VideoSummary struct {
	VideoID          string
	Title            string
	Uploader         Principal
	TimestampSeconds int64
	StorageRef       string
	Views            int64
}

// WalletSession is an identity session derived from a signed wallet challenge.
// The credential is only honored while the wallet address is present, the
// chain is supported, and the identity address matches the wallet address;
// the gate clears the session the moment any of that stops being true.
type WalletSession struct {
	ID              string
	WalletAddress   string
	ChainID         int64
	IdentityAddress string
	Credential      string
	RefreshToken    string
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// SessionTokens groups the bearer credentials issued after wallet verification.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// MirroredThumbnail records a thumbnail copied from its IPFS origin into
// object storage.
type MirroredThumbnail struct {
	VideoID    string
	ObjectURL  string
	SizeBytes  int64
	Status     string
	MirroredAt time.Time
}

const (
	MirrorStatusReady  = "ready"
	MirrorStatusFailed = "failed"
)
