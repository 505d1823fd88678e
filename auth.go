package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry      = 7 * 24 * time.Hour
	bcryptCost     = 12
	minPasswordLen = 4
	minUsernameLen = 2
	maxUsernameLen = 16

	// Login attempts per IP: 10 per minute.
	loginRatePerSec = 10.0 / 60.0
	loginRateBurst  = 10
)

// Auth issues and validates account tokens. The signing secret persists in
// the settings table so tokens survive restarts.
type Auth struct {
	db        *DB
	jwtSecret []byte
	loginRate *IPRateLimiter
}

// NewAuth creates an Auth handler backed by db. A nil db still works for
// guest-only servers; registration and login then fail cleanly.
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		loginRate: NewIPRateLimiter(loginRatePerSec, loginRateBurst),
	}
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
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// Register creates an account and returns a fresh token plus the player row.
func (a *Auth) Register(username, password string) (string, *PlayerRow, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return "", nil, fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return "", nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if a.db == nil {
		return "", nil, fmt.Errorf("accounts are disabled")
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		return "", nil, fmt.Errorf("database error")
	}
	if exists {
		return "", nil, fmt.Errorf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("internal error")
	}

	id, err := a.db.CreatePlayer(username, "", string(hash))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create account")
	}

	token, err := a.generateToken(id, username)
	if err != nil {
		return "", nil, fmt.Errorf("internal error")
	}
	player, err := a.db.GetPlayerByID(id)
	if err != nil || player == nil {
		return "", nil, fmt.Errorf("internal error")
	}
	return token, player, nil
}

// Login authenticates by password and returns a fresh token plus the row.
func (a *Auth) Login(username, password, ip string) (string, *PlayerRow, error) {
	if !a.loginRate.Allow(ip) {
		return "", nil, fmt.Errorf("too many login attempts, try again later")
	}
	if a.db == nil {
		return "", nil, fmt.Errorf("accounts are disabled")
	}

	player, err := a.db.GetPlayerByUsername(username)
	if err != nil {
		return "", nil, fmt.Errorf("database error")
	}
	if player == nil || player.PassHash == "" {
		return "", nil, fmt.Errorf("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid username or password")
	}

	token, err := a.generateToken(player.ID, player.Username)
	if err != nil {
		return "", nil, fmt.Errorf("internal error")
	}
	return token, player, nil
}

// ValidateToken checks a token and returns it with the backing player row.
// The account must still exist; deleted accounts fail validation.
func (a *Auth) ValidateToken(tokenStr string) (string, *PlayerRow, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", nil, fmt.Errorf("invalid token")
	}
	pidFloat, ok := claims["pid"].(float64)
	if !ok {
		return "", nil, fmt.Errorf("invalid token claims")
	}
	if a.db == nil {
		return "", nil, fmt.Errorf("accounts are disabled")
	}
	player, err := a.db.GetPlayerByID(int64(pidFloat))
	if err != nil {
		return "", nil, fmt.Errorf("database error")
	}
	if player == nil {
		return "", nil, fmt.Errorf("account no longer exists")
	}
	return tokenStr, player, nil
}

func (a *Auth) generateToken(playerID int64, username string) (string, error) {
	claims := jwt.MapClaims{
		"pid": playerID,
		"usr": username,
		"exp": time.Now().Add(jwtExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// GenerateGuestName creates a throwaway display name like "Pilot_a3f2".
func GenerateGuestName() string {
	b := make([]byte, 2)
	rand.Read(b)
	return "Pilot_" + hex.EncodeToString(b)
}
