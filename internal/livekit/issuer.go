// Package livekit signs join credentials for LiveKit media rooms.
package livekit

import (
	"errors"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"
)

const defaultValidFor = 6 * time.Hour

var ErrMissingCredentials = errors.New("livekit api key and secret are required")

type Issuer struct {
	apiKey    string
	apiSecret string
	validFor  time.Duration
}

type IssuerOption func(*Issuer)

// WithValidFor sets how long issued tokens stay valid.
func WithValidFor(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		if d > 0 {
			i.validFor = d
		}
	}
}

func NewIssuer(apiKey, apiSecret string, opts ...IssuerOption) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}

	i := &Issuer{apiKey: apiKey, apiSecret: apiSecret, validFor: defaultValidFor}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue returns a signed token that lets identity join room.
func (i *Issuer) Issue(room, identity string) (string, error) {
	if room == "" {
		return "", errors.New("room is required")
	}

	at := auth.NewAccessToken(i.apiKey, i.apiSecret)
	at.SetVideoGrant(&auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}).
		SetIdentity(identity).
		SetName(identity).
		SetValidFor(i.validFor)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to sign token for room %q: %w", room, err)
	}
	return token, nil
}
