package wfe

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// randomString returns a randomly generated string of the requested length.
func randomString(byteLength int) string {
	b := make([]byte, byteLength)
	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		panic(fmt.Sprintf("Error reading random bytes: %s", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// newRequestID produces the ID a request is logged and answered under.
func newRequestID() string {
	return randomString(12)
}
