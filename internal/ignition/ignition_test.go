package ignition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padlokk/ignite/internal/keymaterial"
	"github.com/padlokk/ignite/internal/keytype"
	"github.com/padlokk/ignite/internal/policy"
)

const validPassphrase = "MySecure123!Pass"

func testMaterial(t *testing.T) keymaterial.Material {
	t.Helper()
	m, err := keymaterial.New(make([]byte, 32), make([]byte, 64), keymaterial.Ed25519)
	require.NoError(t, err)
	return m
}

// Property 11: passphrase wrap round-trip.
func TestWrapUnlockRoundTrip(t *testing.T) {
	engine := policy.Default()
	now := time.Now()
	mat := testMaterial(t)

	key, err := Create(validPassphrase, mat, keytype.Distro, nil, engine, now)
	require.NoError(t, err)

	unlocked, err := key.Unlock(validPassphrase, now)
	require.NoError(t, err)
	require.Equal(t, mat.Public, unlocked.Public)
	require.Equal(t, mat.Private, unlocked.Private)
}

func TestWrapUnlockWrongPassphraseFails(t *testing.T) {
	engine := policy.Default()
	now := time.Now()
	mat := testMaterial(t)

	key, err := Create(validPassphrase, mat, keytype.Distro, nil, engine, now)
	require.NoError(t, err)

	_, err = key.Unlock("WrongPassphrase123!", now)
	require.Error(t, err)
	require.Equal(t, uint64(1), key.Metadata.FailedUnlockAttempts)
}

func TestCreateRejectsWeakPassphrase(t *testing.T) {
	engine := policy.Default()
	_, err := Create("short", testMaterial(t), keytype.Distro, nil, engine, time.Now())
	require.Error(t, err)
}

func TestCreateRejectsNonIgnitionTier(t *testing.T) {
	engine := policy.Default()
	_, err := Create(validPassphrase, testMaterial(t), keytype.Master, nil, engine, time.Now())
	require.Error(t, err)
}

func TestChangePassphrase(t *testing.T) {
	engine := policy.Default()
	now := time.Now()
	mat := testMaterial(t)

	key, err := Create(validPassphrase, mat, keytype.Distro, nil, engine, now)
	require.NoError(t, err)

	newPass := "AnotherSecure456$"
	require.NoError(t, key.ChangePassphrase(validPassphrase, newPass, engine, now))

	_, err = key.Unlock(validPassphrase, now)
	require.Error(t, err, "old passphrase should no longer unlock")

	unlocked, err := key.Unlock(newPass, now)
	require.NoError(t, err)
	require.Equal(t, mat.Public, unlocked.Public)
}

func TestExpirationBlocksUnlock(t *testing.T) {
	engine := policy.Default()
	created := time.Now().Add(-8 * 24 * time.Hour) // past the 7-day Distro default
	mat := testMaterial(t)

	key, err := Create(validPassphrase, mat, keytype.Distro, nil, engine, created)
	require.NoError(t, err)

	_, err = key.Unlock(validPassphrase, time.Now())
	require.Error(t, err)
}

func TestWarningWindow(t *testing.T) {
	engine := policy.Default()
	created := time.Now().Add(-6*24*time.Hour - 20*time.Hour) // within last 10% of 7 days
	mat := testMaterial(t)

	key, err := Create(validPassphrase, mat, keytype.Distro, nil, engine, created)
	require.NoError(t, err)
	require.True(t, key.IsWarning(time.Now()))
}
