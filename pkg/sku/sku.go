// Package sku generates store-scoped product codes.
//
// Codes look like SKU-4F2A-7K9X: the last four characters of the owning
// store id followed by four random base36 characters, upper-cased. The
// random suffix keeps collisions rare within a store; Generate regenerates
// on the rare collision instead of surfacing it to the client.
package sku

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// maxAttempts bounds Generate's regeneration loop.
const maxAttempts = 5

// ErrExhausted is returned when every generation attempt collided.
var ErrExhausted = errors.New("sku: exhausted generation attempts")

// New returns a fresh code for the store. Uniqueness is not checked; use
// Generate when a collision must be resolved before the insert.
func New(storeID string) string {
	return strings.ToUpper(fmt.Sprintf("SKU-%s-%s", tail(storeID, 4), random(4)))
}

// Generate returns a code that passes the supplied uniqueness check,
// regenerating the random suffix on collision. After maxAttempts collisions
// it gives up with ErrExhausted rather than looping forever.
func Generate(storeID string, exists func(code string) (bool, error)) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code := New(storeID)
		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("sku: uniqueness check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func random(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf) // only fails when the platform RNG is broken
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}
