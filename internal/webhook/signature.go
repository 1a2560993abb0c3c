// Copyright 2025 The Hookfeed Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const signaturePrefix = "sha256="

// ValidateSignature verifies the HMAC-SHA256 signature of a GitHub webhook payload.
// It returns true if the delivery is authentic under the configured secret.
//
// The signature should be in the format "sha256=<hex-encoded-hmac>".
//
// With no secret configured only unsigned deliveries are accepted; a signed
// delivery cannot be checked and is rejected. With a secret configured the
// signature is required.
func ValidateSignature(payload []byte, signature string, secret string) bool {
	if secret == "" {
		return signature == ""
	}
	if signature == "" {
		return false
	}

	// Compute expected signature
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := signaturePrefix + hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison to prevent timing attacks. A wrong prefix or
	// malformed hex simply fails to match.
	return hmac.Equal([]byte(signature), []byte(expected))
}
