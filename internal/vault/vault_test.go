package vault

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padlokk/ignite/internal/authoritykey"
	"github.com/padlokk/ignite/internal/fingerprint"
	"github.com/padlokk/ignite/internal/ignition"
	"github.com/padlokk/ignite/internal/keymaterial"
	"github.com/padlokk/ignite/internal/keytype"
	"github.com/padlokk/ignite/internal/manifest"
	"github.com/padlokk/ignite/internal/policy"
	"github.com/padlokk/ignite/internal/proof"
)

func testMaterial(t *testing.T) keymaterial.Material {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mat, err := keymaterial.New(pub, priv, keymaterial.Ed25519)
	require.NoError(t, err)
	return mat
}

func TestEnsureLayoutCreatesSubdirs(t *testing.T) {
	v := Open(t.TempDir())
	require.NoError(t, v.EnsureLayout())
	for _, dir := range []string{"keys", "proofs", "manifests", "metadata"} {
		info, err := os.Stat(filepath.Join(v.Root, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestAuthorityKeyRoundTrip(t *testing.T) {
	v := Open(t.TempDir())
	mat := testMaterial(t)
	k := authoritykey.New(mat, keytype.Repo, authoritykey.Metadata{Creator: "test"})

	require.NoError(t, v.SaveAuthorityKey(k))
	require.NotEmpty(t, k.Path)
	_, err := os.Stat(k.Path + ".tmp")
	require.True(t, os.IsNotExist(err), "tmp sibling must not survive a committed write")

	loaded, err := v.LoadAuthorityKey(keytype.Repo, k.Fingerprint)
	require.NoError(t, err)
	require.Equal(t, k.Fingerprint, loaded.Fingerprint)
	require.Equal(t, k.Type, loaded.Type)
	require.Equal(t, k.Material.Public, loaded.Material.Public)
}

func TestAuthorityKeyRejectsIgnitionTier(t *testing.T) {
	v := Open(t.TempDir())
	mat := testMaterial(t)
	k := authoritykey.New(mat, keytype.Distro, authoritykey.Metadata{})
	require.Error(t, v.SaveAuthorityKey(k))
}

func TestAuthorityKeyChildTypesRebuiltOnLoad(t *testing.T) {
	v := Open(t.TempDir())
	parentMat := testMaterial(t)
	parent := authoritykey.New(parentMat, keytype.Master, authoritykey.Metadata{})
	childFP := fingerprint.FromKeyMaterial(testMaterial(t).Public)
	require.NoError(t, parent.AddChild(childFP, keytype.Repo))

	require.NoError(t, v.SaveAuthorityKey(parent))
	loaded, err := v.LoadAuthorityKey(keytype.Master, parent.Fingerprint)
	require.NoError(t, err)

	// A second AddChild call on the reloaded key must still enforce I2/I3,
	// which requires childTypes to have been rebuilt from Children.
	require.True(t, loaded.HasChild(childFP))
	err = loaded.AddChild(childFP, keytype.Repo)
	require.Error(t, err, "duplicate child must still be rejected after reload")
}

func TestIgnitionKeyRoundTrip(t *testing.T) {
	v := Open(t.TempDir())
	engine := policy.Default()
	mat := testMaterial(t)
	fp := mat.Fingerprint()

	k, err := ignition.Create("MySecure123!Pass", mat, keytype.Distro, nil, engine, time.Now())
	require.NoError(t, err)

	require.NoError(t, v.SaveIgnitionKey(fp, k))
	loaded, err := v.LoadIgnitionKey(keytype.Distro, fp)
	require.NoError(t, err)

	unlocked, err := loaded.Unlock("MySecure123!Pass", time.Now())
	require.NoError(t, err)
	require.Equal(t, mat.Public, unlocked.Public)
	require.Equal(t, mat.Private, unlocked.Private)
}

func TestListKeys(t *testing.T) {
	v := Open(t.TempDir())
	for i := 0; i < 3; i++ {
		k := authoritykey.New(testMaterial(t), keytype.Repo, authoritykey.Metadata{})
		require.NoError(t, v.SaveAuthorityKey(k))
	}
	paths, err := v.ListKeys(keytype.Repo)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	empty, err := v.ListKeys(keytype.Master)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func testFingerprints(t *testing.T) (parentFP, childFP fingerprint.Fingerprint) {
	t.Helper()
	parentPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	childPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return fingerprint.FromKeyMaterial(parentPub), fingerprint.FromKeyMaterial(childPub)
}

func TestProofRoundTrip(t *testing.T) {
	v := Open(t.TempDir())
	parentFP, childFP := testFingerprints(t)
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	claim, err := proof.NewAuthorityClaim(parentFP, childFP, "rotate")
	require.NoError(t, err)
	issuedAt := time.Now()
	bundle, err := proof.SignClaim(claim, priv, issuedAt.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, v.SaveProof(parentFP, issuedAt, bundle))

	paths, err := v.ListProofs(parentFP)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	loaded, err := v.LoadProof(paths[0])
	require.NoError(t, err)
	require.Equal(t, bundle.Digest, loaded.Digest)
	require.NoError(t, loaded.Verify(issuedAt))
}

func TestLoadProofRejectsTamperedPayload(t *testing.T) {
	v := Open(t.TempDir())
	parentFP, childFP := testFingerprints(t)
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	claim, err := proof.NewAuthorityClaim(parentFP, childFP, "rotate")
	require.NoError(t, err)
	issuedAt := time.Now()
	bundle, err := proof.SignClaim(claim, priv, issuedAt.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, v.SaveProof(parentFP, issuedAt, bundle))

	path := v.ProofPath(parentFP, issuedAt)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	marker := []byte(`"payload_json":"`)
	idx := indexOfBytes(data, marker)
	require.True(t, idx >= 0)
	tamperAt := idx + len(marker)
	tampered := append([]byte{}, data...)
	if tampered[tamperAt] == 'x' {
		tampered[tamperAt] = 'y'
	} else {
		tampered[tamperAt] = 'x'
	}
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	_, err = v.LoadProof(path)
	require.Error(t, err)
}

func indexOfBytes(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func buildManifest(t *testing.T, parentFP fingerprint.Fingerprint) *manifest.Manifest {
	t.Helper()
	childFP := fingerprint.FromKeyMaterial(testMaterial(t).Public)
	m := manifest.New(manifest.Event{
		EventType:         manifest.EventRotation,
		ParentFingerprint: parentFP,
		InitiatedAt:       time.Now(),
		InitiatedBy:       "operator",
		Reason:            "scheduled rotation",
	})
	m.AddChild(manifest.Child{
		Fingerprint: childFP,
		Role:        keytype.Distro,
		Status:      "revoked",
		IssuedAt:    time.Now(),
	})
	return m
}

func TestManifestRoundTrip(t *testing.T) {
	v := Open(t.TempDir())
	parentFP, _ := testFingerprints(t)
	m := buildManifest(t, parentFP)

	require.NoError(t, v.SaveManifest(m))

	paths, err := v.ListManifests(parentFP.Short())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, v.ManifestPath(m), paths[0])

	loaded, err := v.LoadManifest(paths[0])
	require.NoError(t, err)
	require.Equal(t, m.Digest.Value, loaded.Digest.Value)
	require.Len(t, loaded.Children, 1)
	require.Equal(t, m.Children[0].Fingerprint, loaded.Children[0].Fingerprint)
	require.Equal(t, m.Children[0].Role, loaded.Children[0].Role)
}

func TestLoadManifestRejectsDigestMismatch(t *testing.T) {
	v := Open(t.TempDir())
	parentFP, _ := testFingerprints(t)
	m := buildManifest(t, parentFP)
	require.NoError(t, v.SaveManifest(m))

	path := v.ManifestPath(m)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	marker := []byte(`"initiated_by":"`)
	idx := indexOfBytes(data, marker)
	require.True(t, idx >= 0)
	tamperAt := idx + len(marker)
	tampered := append([]byte{}, data...)
	if tampered[tamperAt] == 'x' {
		tampered[tamperAt] = 'y'
	} else {
		tampered[tamperAt] = 'x'
	}
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	_, err = v.LoadManifest(path)
	require.Error(t, err)
}

func TestListAllManifestSubjectsSorted(t *testing.T) {
	v := Open(t.TempDir())
	var subjects []string
	for i := 0; i < 3; i++ {
		parentFP, _ := testFingerprints(t)
		m := buildManifest(t, parentFP)
		require.NoError(t, v.SaveManifest(m))
		subjects = append(subjects, parentFP.Short())
	}

	got, err := v.ListAllManifestSubjects()
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		require.True(t, got[i-1] < got[i], "subjects must be sorted")
	}
}
