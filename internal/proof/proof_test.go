package proof

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padlokk/ignite/internal/fingerprint"
)

func testFingerprints(t *testing.T) (parentFP, childFP fingerprint.Fingerprint) {
	t.Helper()
	parentPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	childPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return fingerprint.FromKeyMaterial(parentPub), fingerprint.FromKeyMaterial(childPub)
}

// S4: proof lifecycle, including expiry while digest still verifies.
func TestProofLifecycle(t *testing.T) {
	parentFP, childFP := testFingerprints(t)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_ = pub

	claim, err := NewAuthorityClaim(parentFP, childFP, "test")
	require.NoError(t, err)

	bundle, err := SignClaim(claim, priv, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, bundle.VerifyFull(time.Now()))

	future := time.Now().Add(2 * time.Hour)
	err = bundle.Verify(future)
	require.Error(t, err)
	require.NoError(t, bundle.VerifyDigest())
}

func TestProofDigestTamper(t *testing.T) {
	parentFP, childFP := testFingerprints(t)
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	claim, err := NewAuthorityClaim(parentFP, childFP, "rotate")
	require.NoError(t, err)
	bundle, err := SignClaim(claim, priv, time.Now().Add(time.Hour))
	require.NoError(t, err)

	bundle.PayloadJSON = bundle.PayloadJSON[:len(bundle.PayloadJSON)-1] + "x"
	require.Error(t, bundle.VerifyDigest())
}

func TestReceiptRoundTrip(t *testing.T) {
	parentFP, childFP := testFingerprints(t)
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	receipt, err := NewSubjectReceipt(childFP, parentFP)
	require.NoError(t, err)
	bundle, err := SignReceipt(receipt, priv, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, bundle.VerifyFull(time.Now()))
}

func TestCanonicalJSONFieldOrder(t *testing.T) {
	parentFP, childFP := testFingerprints(t)
	claim, err := NewAuthorityClaim(parentFP, childFP, "test")
	require.NoError(t, err)

	json1 := claim.CanonicalJSON()
	json2 := claim.CanonicalJSON()
	require.Equal(t, json1, json2, "canonical JSON must be stable across repeated calls")

	require.Contains(t, json1, `"child_fp":`)
	childIdx := indexOf(json1, `"child_fp"`)
	issuedIdx := indexOf(json1, `"issued_at"`)
	nonceIdx := indexOf(json1, `"nonce"`)
	parentIdx := indexOf(json1, `"parent_fp"`)
	purposeIdx := indexOf(json1, `"purpose"`)
	schemaIdx := indexOf(json1, `"schema_version"`)

	require.True(t, childIdx < issuedIdx)
	require.True(t, issuedIdx < nonceIdx)
	require.True(t, nonceIdx < parentIdx)
	require.True(t, parentIdx < purposeIdx)
	require.True(t, purposeIdx < schemaIdx)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestPurposeRejectsControlChars(t *testing.T) {
	parentFP, childFP := testFingerprints(t)
	_, err := NewAuthorityClaim(parentFP, childFP, "bad\npurpose")
	require.Error(t, err)
}

func TestSignClaimRejectsMalformedSigningKey(t *testing.T) {
	parentFP, childFP := testFingerprints(t)
	claim, err := NewAuthorityClaim(parentFP, childFP, "test")
	require.NoError(t, err)

	// Deliberately malformed "private key" sized wrong to simulate a
	// non-ed25519 key making it to sign(); SignClaim should reject it
	// rather than panic.
	_, err = SignClaim(claim, make([]byte, 10), time.Now().Add(time.Hour))
	require.Error(t, err)
}
