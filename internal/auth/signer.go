package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer produces and validates RS256 access tokens for wallet sessions.
type Signer struct {
	kid        string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// Claims is the payload carried by an access token.
type Claims struct {
	WalletAddress string
	ChainID       int64
	SessionID     string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

type sessionJWTClaims struct {
	WalletAddress string `json:"wallet_address"`
	ChainID       int64  `json:"chain_id"`
	SessionID     string `json:"session_id"`
	jwt.RegisteredClaims
}

// NewSigner builds a signer from configured PEM keys.
func NewSigner(kid, privateKeyPEM, publicKeyPEM string) (*Signer, error) {
	if kid == "" {
		return nil, errors.New("jwt key id (kid) is required")
	}
	if privateKeyPEM == "" || publicKeyPEM == "" {
		return nil, errors.New("jwt private/public keys are required")
	}

	priv, err := parseRSAPrivate(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pub, err := parseRSAPublic(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Signer{kid: kid, privateKey: priv, publicKey: pub}, nil
}

// NewEphemeralSigner creates an in-memory keypair for local development.
// Tokens signed with it die with the process.
func NewEphemeralSigner(kid string) (*Signer, error) {
	if kid == "" {
		kid = "ephemeral-key-1"
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &Signer{kid: kid, privateKey: privateKey, publicKey: &privateKey.PublicKey}, nil
}

// Sign issues a signed access token for the provided claims.
func (s *Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, sessionJWTClaims{
		WalletAddress: claims.WalletAddress,
		ChainID:       claims.ChainID,
		SessionID:     claims.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	token.Header["kid"] = s.kid
	return token.SignedString(s.privateKey)
}

// ParseAndValidate checks the signature and expiry of a raw access token
// and returns its claims.
func (s *Signer) ParseAndValidate(raw string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return Claims{}, err
	}

	claims, ok := parsed.Claims.(*sessionJWTClaims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token claims")
	}
	if claims.SessionID == "" || claims.WalletAddress == "" {
		return Claims{}, errors.New("token is missing session identity")
	}

	return Claims{
		WalletAddress: claims.WalletAddress,
		ChainID:       claims.ChainID,
		SessionID:     claims.SessionID,
		IssuedAt:      claims.IssuedAt.Time.UTC(),
		ExpiresAt:     claims.ExpiresAt.Time.UTC(),
	}, nil
}

func parseRSAPrivate(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid private PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

func parseRSAPublic(raw string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}
