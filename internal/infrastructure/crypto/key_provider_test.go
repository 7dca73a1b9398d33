package crypto_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/internal/infrastructure/crypto"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/logger"
)

func newConfigProvider(secret string) *config.TokenConfig {
	return &config.TokenConfig{SigningSecret: secret}
}

func TestKeyProvider_HexSecretDecodedAndPadded(t *testing.T) {
	ctx := context.Background()
	// 32 hex chars decode to 16 bytes, below the HMAC minimum
	secret := "aabbccddeeff00112233445566778899"
	provider := crypto.NewKeyProvider(config.VaultConfig{}, *newConfigProvider(secret), logger.NewNoopLogger())

	key := provider.Resolve(ctx)
	require.NotNil(t, key)
	assert.Equal(t, constants.KeySourceConfig, key.Source)
	assert.Len(t, key.Bytes, constants.MinSigningKeyBytes)

	decoded, err := hex.DecodeString(secret)
	require.NoError(t, err)
	assert.Equal(t, decoded, key.Bytes[:len(decoded)])
	// the tail is zero padding
	assert.Equal(t, make([]byte, constants.MinSigningKeyBytes-len(decoded)), key.Bytes[len(decoded):])
}

func TestKeyProvider_RawSecretUsedAsUTF8(t *testing.T) {
	ctx := context.Background()
	secret := "a-plain-text-signing-secret-with-length" // not hex, 39 bytes
	provider := crypto.NewKeyProvider(config.VaultConfig{}, *newConfigProvider(secret), logger.NewNoopLogger())

	key := provider.Resolve(ctx)
	require.NotNil(t, key)
	assert.Equal(t, constants.KeySourceConfig, key.Source)
	assert.Equal(t, []byte(secret), key.Bytes)
	assert.False(t, key.IsEphemeral())
}

func TestKeyProvider_ShortRawSecretPadded(t *testing.T) {
	ctx := context.Background()
	provider := crypto.NewKeyProvider(config.VaultConfig{}, *newConfigProvider("shorty"), logger.NewNoopLogger())

	key := provider.Resolve(ctx)
	require.NotNil(t, key)
	assert.Len(t, key.Bytes, constants.MinSigningKeyBytes)
	assert.Equal(t, []byte("shorty"), key.Bytes[:6])
}

func TestKeyProvider_GeneratedFallback(t *testing.T) {
	ctx := context.Background()
	provider := crypto.NewKeyProvider(config.VaultConfig{}, config.TokenConfig{}, logger.NewNoopLogger())

	key := provider.Resolve(ctx)
	require.NotNil(t, key)
	assert.Equal(t, constants.KeySourceGenerated, key.Source)
	assert.True(t, key.IsEphemeral())
	assert.Len(t, key.Bytes, constants.MinSigningKeyBytes)
	assert.False(t, bytes.Equal(key.Bytes, make([]byte, constants.MinSigningKeyBytes)))
}

func TestKeyProvider_ResolveCachesUntilRefresh(t *testing.T) {
	ctx := context.Background()
	provider := crypto.NewKeyProvider(config.VaultConfig{}, config.TokenConfig{}, logger.NewNoopLogger())

	first := provider.Resolve(ctx)
	second := provider.Resolve(ctx)
	assert.Same(t, first, second)

	refreshed := provider.Refresh(ctx)
	assert.False(t, bytes.Equal(first.Bytes, refreshed.Bytes))
	assert.Same(t, refreshed, provider.Resolve(ctx))
}

func TestKeyProvider_UnreachableVaultFallsThrough(t *testing.T) {
	ctx := context.Background()
	vaultCfg := config.VaultConfig{
		Address:    "http://127.0.0.1:1",
		MountPath:  "secret",
		SecretPath: "tokenforge/signing",
		SecretKey:  "secret",
	}
	provider := crypto.NewKeyProvider(vaultCfg, *newConfigProvider("fallback-static-secret-material!"), logger.NewNoopLogger())

	key := provider.Resolve(ctx)
	require.NotNil(t, key)
	assert.Equal(t, constants.KeySourceConfig, key.Source)
}

func TestKeyProvider_Validate(t *testing.T) {
	ctx := context.Background()
	provider := crypto.NewKeyProvider(config.VaultConfig{}, config.TokenConfig{}, logger.NewNoopLogger())

	good := provider.Resolve(ctx)
	assert.True(t, provider.Validate(ctx, good))

	assert.False(t, provider.Validate(ctx, nil))

	short := *good
	short.Bytes = good.Bytes[:8]
	assert.False(t, provider.Validate(ctx, &short))
}
