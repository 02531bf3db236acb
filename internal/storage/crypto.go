// Package storage - PIN verification for unlocking the local store.
// Only Argon2id is supported (no legacy scrypt).
package storage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters (OWASP recommended for password hashing)
const (
	argon2Time        = 3         // Number of iterations
	argon2Memory      = 64 * 1024 // 64 MB memory
	argon2Parallelism = 4         // Parallel threads
	argon2KeyLen      = 32        // Output key length
	argon2SaltLen     = 32        // Salt length
)

const keyPinVerifier = "pin_verifier"

// pinVerifier is the stored Argon2id digest of the unlock PIN.
type pinVerifier struct {
	Version     int    `json:"version"`
	Salt        []byte `json:"salt"`
	Digest      []byte `json:"digest"`
	Time        uint32 `json:"time"`
	Memory      uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
}

// Unlock verifies the PIN against the stored verifier and marks the store
// unlocked. The first unlock establishes the verifier.
func (s *Storage) Unlock(pin string) error {
	if pin == "" {
		return fmt.Errorf("pin cannot be empty")
	}

	value, ok, err := s.GetSetting(keyPinVerifier)
	if err != nil {
		return err
	}

	if !ok {
		if err := s.createPinVerifier(pin); err != nil {
			return err
		}
		s.setUnlocked(true)
		return nil
	}

	var verifier pinVerifier
	if err := json.Unmarshal([]byte(value), &verifier); err != nil {
		return fmt.Errorf("corrupt pin verifier: %w", err)
	}

	digest := derivePinDigest(pin, &verifier)
	if subtle.ConstantTimeCompare(digest, verifier.Digest) != 1 {
		return fmt.Errorf("wrong pin")
	}

	s.setUnlocked(true)
	return nil
}

// Lock marks the store locked again.
func (s *Storage) Lock() {
	s.setUnlocked(false)
}

// IsUnlocked reports whether the store has been unlocked this run.
func (s *Storage) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unlocked
}

func (s *Storage) setUnlocked(unlocked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = unlocked
}

// createPinVerifier derives and stores the verifier for a new PIN.
func (s *Storage) createPinVerifier(pin string) error {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	verifier := pinVerifier{
		Version:     1,
		Salt:        salt,
		Time:        argon2Time,
		Memory:      argon2Memory,
		Parallelism: argon2Parallelism,
	}
	verifier.Digest = derivePinDigest(pin, &verifier)

	data, err := json.Marshal(&verifier)
	if err != nil {
		return fmt.Errorf("failed to marshal pin verifier: %w", err)
	}

	return s.SetSetting(keyPinVerifier, string(data))
}

// derivePinDigest derives the Argon2id digest using the verifier parameters,
// falling back to current defaults for zero values.
func derivePinDigest(pin string, v *pinVerifier) []byte {
	time := v.Time
	if time == 0 {
		time = argon2Time
	}
	memory := v.Memory
	if memory == 0 {
		memory = argon2Memory
	}
	parallelism := v.Parallelism
	if parallelism == 0 {
		parallelism = argon2Parallelism
	}

	return argon2.IDKey([]byte(pin), v.Salt, time, memory, parallelism, argon2KeyLen)
}
