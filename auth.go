package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL  = 24 * time.Hour
	bcryptCost       = 12
	minPassphraseLen = 4
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	commanderSubject = "commander"
)

var (
	ErrBadPassphrase = errors.New("invalid passphrase")
	ErrRateLimited   = errors.New("too many login attempts, try again later")
	ErrInvalidToken  = errors.New("invalid token")
)

// Auth guards commander rights. Viewers need no credentials; issuing orders
// needs a token obtained with the commander passphrase.
type Auth struct {
	jwtSecret     []byte
	commanderHash []byte
	tokenTTL      time.Duration

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates the commander guard. With an empty commanderHash a random
// passphrase is generated and returned so the operator can be told it.
func NewAuth(db *DB, commanderHash string, ttl time.Duration) (*Auth, string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	a := &Auth{
		jwtSecret: loadOrCreateSecret(db),
		tokenTTL:  ttl,
		rateMap:   make(map[string]*rateEntry),
	}
	var generated string
	if commanderHash == "" {
		generated = GenerateID(6)
		hash, err := HashPassphrase(generated)
		if err != nil {
			return nil, "", err
		}
		commanderHash = hash
	}
	if _, err := bcrypt.Cost([]byte(commanderHash)); err != nil {
		return nil, "", fmt.Errorf("auth.commanderHash: %w", err)
	}
	a.commanderHash = []byte(commanderHash)
	return a, generated, nil
}

// HashPassphrase returns the bcrypt hash to store as auth.commanderHash
func HashPassphrase(passphrase string) (string, error) {
	if len(passphrase) < minPassphraseLen {
		return "", fmt.Errorf("passphrase must be at least %d characters", minPassphraseLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}
	return string(hash), nil
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			Logger.Warn().Err(err).Msg("could not persist JWT secret")
		}
	}
	return secret
}

// Login checks the commander passphrase and returns a token
func (a *Auth) Login(passphrase, ip string) (string, error) {
	if !a.checkRate(ip) {
		return "", ErrRateLimited
	}
	if err := bcrypt.CompareHashAndPassword(a.commanderHash, []byte(passphrase)); err != nil {
		return "", ErrBadPassphrase
	}
	return a.generateToken()
}

// ValidateToken checks that tokenStr is a live commander token
func (a *Auth) ValidateToken(tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || !token.Valid || sub != commanderSubject {
		return ErrInvalidToken
	}
	return nil
}

func (a *Auth) generateToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   commanderSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
