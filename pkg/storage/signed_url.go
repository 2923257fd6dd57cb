package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken covers malformed and forged photo links.
	ErrInvalidToken = errors.New("invalid signed token")
	// ErrTokenExpired is returned once a link outlives its TTL.
	ErrTokenExpired = errors.New("signed token expired")
)

// SignedURLSigner issues short-lived links to stored files without requiring a bearer token.
//
// A token is two base64url segments joined by a dot: the claim "<id>\n<unix expiry>\n<path>"
// and its HMAC-SHA256 under the signer secret.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate binds a record id to a stored file path until the TTL elapses.
func (s *SignedURLSigner) Generate(id, relPath string) (string, time.Time, error) {
	switch {
	case len(s.secret) == 0:
		return "", time.Time{}, errors.New("signing secret missing")
	case id == "" || relPath == "":
		return "", time.Time{}, errors.New("id and path are required")
	case strings.ContainsRune(id, '\n'):
		return "", time.Time{}, ErrInvalidToken
	}

	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	claim := id + "\n" + strconv.FormatInt(expiresAt.Unix(), 10) + "\n" + relPath
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(claim)) + "." + enc.EncodeToString(s.sign(claim)), expiresAt, nil
}

// Parse verifies the signature and expiry of token. allowExpired skips the expiry check.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error) {
	claimPart, sigPart, ok := strings.Cut(token, ".")
	if !ok {
		return "", "", time.Time{}, ErrInvalidToken
	}
	enc := base64.RawURLEncoding
	claim, err := enc.DecodeString(claimPart)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	sig, err := enc.DecodeString(sigPart)
	if err != nil || !hmac.Equal(sig, s.sign(string(claim))) {
		return "", "", time.Time{}, ErrInvalidToken
	}

	fields := strings.SplitN(string(claim), "\n", 3)
	if len(fields) != 3 {
		return "", "", time.Time{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrInvalidToken
	}
	expiresAt = time.Unix(unix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return fields[0], fields[2], expiresAt, nil
}

func (s *SignedURLSigner) sign(claim string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(claim))
	return mac.Sum(nil)
}
