package chain

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/padlokk/ignite/internal/authoritykey"
	"github.com/padlokk/ignite/internal/keymaterial"
	"github.com/padlokk/ignite/internal/keytype"
)

func newTestKey(t *testing.T, kt keytype.KeyType) *authoritykey.Key {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mat, err := keymaterial.New(pub, priv, keymaterial.Ed25519)
	require.NoError(t, err)
	return authoritykey.New(mat, kt, authoritykey.Metadata{Creator: "test"})
}

// S1: minimal chain — Skull controls Master.
func TestMinimalChain(t *testing.T) {
	c := New()
	skull := newTestKey(t, keytype.Skull)
	master := newTestKey(t, keytype.Master)

	require.NoError(t, c.AddKey(skull))
	require.NoError(t, c.AddKey(master))
	require.NoError(t, c.AddAuthorityRelationship(skull.Fingerprint, master.Fingerprint))

	require.True(t, c.HasAuthority(skull.Fingerprint, master.Fingerprint))
	parent, ok := c.GetParent(master.Fingerprint)
	require.True(t, ok)
	require.Equal(t, skull.Fingerprint, parent)

	deps := c.FindDependentKeys(skull.Fingerprint)
	require.Len(t, deps, 1)
	require.Equal(t, master.Fingerprint, deps[0].Fingerprint)
}

// S2: invalid skip — Skull cannot control Repo directly.
func TestInvalidSkip(t *testing.T) {
	c := New()
	skull := newTestKey(t, keytype.Skull)
	repo := newTestKey(t, keytype.Repo)

	require.NoError(t, c.AddKey(skull))
	require.NoError(t, c.AddKey(repo))

	err := c.AddAuthorityRelationship(skull.Fingerprint, repo.Fingerprint)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot control")
}

// S3: full chain X->M->R->I->D, DFS order from the direct child.
func TestFullChain(t *testing.T) {
	c := New()
	skull := newTestKey(t, keytype.Skull)
	master := newTestKey(t, keytype.Master)
	repo := newTestKey(t, keytype.Repo)
	ignition := newTestKey(t, keytype.Ignition)
	distro := newTestKey(t, keytype.Distro)

	for _, k := range []*authoritykey.Key{skull, master, repo, ignition, distro} {
		require.NoError(t, c.AddKey(k))
	}

	require.NoError(t, c.AddAuthorityRelationship(skull.Fingerprint, master.Fingerprint))
	require.NoError(t, c.AddAuthorityRelationship(master.Fingerprint, repo.Fingerprint))
	require.NoError(t, c.AddAuthorityRelationship(repo.Fingerprint, ignition.Fingerprint))
	require.NoError(t, c.AddAuthorityRelationship(ignition.Fingerprint, distro.Fingerprint))

	deps := c.FindDependentKeys(skull.Fingerprint)
	require.Len(t, deps, 4)
	require.Equal(t, master.Fingerprint, deps[0].Fingerprint)

	require.NoError(t, c.ValidateIntegrity())
}

func TestAddKeyDuplicateFails(t *testing.T) {
	c := New()
	k := newTestKey(t, keytype.Skull)
	require.NoError(t, c.AddKey(k))
	require.Error(t, c.AddKey(k))
}

func TestSecondParentRejected(t *testing.T) {
	c := New()
	skullA := newTestKey(t, keytype.Skull)
	skullB := newTestKey(t, keytype.Skull)
	master := newTestKey(t, keytype.Master)

	require.NoError(t, c.AddKey(skullA))
	require.NoError(t, c.AddKey(skullB))
	require.NoError(t, c.AddKey(master))

	require.NoError(t, c.AddAuthorityRelationship(skullA.Fingerprint, master.Fingerprint))
	err := c.AddAuthorityRelationship(skullB.Fingerprint, master.Fingerprint)
	require.Error(t, err)
}

func TestDuplicateEdgeRejected(t *testing.T) {
	c := New()
	skull := newTestKey(t, keytype.Skull)
	master := newTestKey(t, keytype.Master)
	require.NoError(t, c.AddKey(skull))
	require.NoError(t, c.AddKey(master))
	require.NoError(t, c.AddAuthorityRelationship(skull.Fingerprint, master.Fingerprint))
	err := c.AddAuthorityRelationship(skull.Fingerprint, master.Fingerprint)
	require.Error(t, err)
}

func TestValidateIntegrityEmptyChain(t *testing.T) {
	c := New()
	require.NoError(t, c.ValidateIntegrity())
}

func TestRebuildFromPersistedChildren(t *testing.T) {
	skull := newTestKey(t, keytype.Skull)
	master := newTestKey(t, keytype.Master)
	require.NoError(t, skull.AddChild(master.Fingerprint, keytype.Master))

	c := New()
	require.NoError(t, c.Rebuild([]*authoritykey.Key{skull, master}))

	require.True(t, c.HasAuthority(skull.Fingerprint, master.Fingerprint))
	parent, ok := c.GetParent(master.Fingerprint)
	require.True(t, ok)
	require.Equal(t, skull.Fingerprint, parent)
	require.NoError(t, c.ValidateIntegrity())
}

func TestRebuildRejectsDuplicateFingerprint(t *testing.T) {
	skull := newTestKey(t, keytype.Skull)
	c := New()
	require.NoError(t, c.Rebuild([]*authoritykey.Key{skull}))
	require.Error(t, c.Rebuild([]*authoritykey.Key{skull}))
}
