package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

// LoginAttempt tracks failed login attempts per IP
type LoginAttempt struct {
	Count       int
	LockedUntil time.Time
}

// BasicAuth guards the status endpoints with a single argon2id password
type BasicAuth struct {
	passwordHash  string
	loginAttempts map[string]*LoginAttempt
	mu            sync.Mutex
	now           func() time.Time
}

func NewBasicAuth(passwordHash string) *BasicAuth {
	return &BasicAuth{
		passwordHash:  passwordHash,
		loginAttempts: make(map[string]*LoginAttempt),
		now:           time.Now,
	}
}

// GenerateArgon2Hash generates an Argon2id hash of the password
func GenerateArgon2Hash(password string, memory uint32, time uint32, threads uint8) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, time, memory, threads, 32)

	// $argon2id$v=19$m=memory,t=time,p=threads$salt$hash
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, time, threads, encodedSalt, encodedHash), nil
}

// VerifyArgon2Hash verifies a password against an Argon2id hash
func VerifyArgon2Hash(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, fmt.Errorf("invalid algorithm")
	}

	var memory, time uint32
	var threads uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	hash := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expectedHash)))

	return subtle.ConstantTimeCompare(hash, expectedHash) == 1, nil
}

// Middleware rejects requests without valid credentials. Any username is accepted.
func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil || a.passwordHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		ip := getClientIP(r)
		if a.isLockedOut(ip) {
			http.Error(w, "Too many failed attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}

		_, password, ok := r.BasicAuth()
		if ok {
			valid, err := VerifyArgon2Hash(password, a.passwordHash)
			if err != nil {
				log.Printf("⚠️  Password hash verification error: %v", err)
			}
			if valid {
				a.resetLoginAttempts(ip)
				next.ServeHTTP(w, r)
				return
			}
			a.recordFailedLogin(ip)
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="internet-monitor"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func (a *BasicAuth) recordFailedLogin(ip string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	attempt, exists := a.loginAttempts[ip]
	if !exists {
		attempt = &LoginAttempt{}
		a.loginAttempts[ip] = attempt
	}
	attempt.Count++
	if attempt.Count >= maxLoginAttempts {
		attempt.LockedUntil = a.now().Add(lockoutDuration)
		log.Printf("🔒 IP %s locked out after %d failed login attempts", ip, attempt.Count)
	}
}

func (a *BasicAuth) isLockedOut(ip string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	attempt, exists := a.loginAttempts[ip]
	if !exists {
		return false
	}
	if attempt.Count >= maxLoginAttempts && a.now().Before(attempt.LockedUntil) {
		return true
	}
	if attempt.Count >= maxLoginAttempts {
		delete(a.loginAttempts, ip)
	}
	return false
}

func (a *BasicAuth) resetLoginAttempts(ip string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.loginAttempts, ip)
}
