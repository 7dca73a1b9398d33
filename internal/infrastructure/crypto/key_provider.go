// Package crypto provides signing key resolution and the token codec.
package crypto

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/pkg/constants"
	"github.com/turtacn/tokenforge/pkg/logger"
	"github.com/turtacn/tokenforge/pkg/utils"
)

var _ service.SigningKeyProvider = (*keyProvider)(nil)

// keyProvider resolves signing key material with the source precedence
// persisted-config (Vault) > static-config > generated fallback. The
// resolved material is cached process-wide and treated as immutable until an
// explicit Refresh.
type keyProvider struct {
	vaultCfg config.VaultConfig
	tokenCfg config.TokenConfig
	log      logger.Logger

	mu      sync.RWMutex
	current *models.KeyMaterial
}

// NewKeyProvider creates a SigningKeyProvider over the given configuration.
func NewKeyProvider(vaultCfg config.VaultConfig, tokenCfg config.TokenConfig, log logger.Logger) service.SigningKeyProvider {
	return &keyProvider{
		vaultCfg: vaultCfg,
		tokenCfg: tokenCfg,
		log:      log.WithComponent("key_provider"),
	}
}

// Resolve returns the cached key material, resolving it on first use.
// Resolution never fails; when every source is unavailable a random
// ephemeral key is generated and the degraded mode is logged.
func (p *keyProvider) Resolve(ctx context.Context) *models.KeyMaterial {
	p.mu.RLock()
	if p.current != nil {
		defer p.mu.RUnlock()
		return p.current
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		p.current = p.resolve(ctx)
	}
	return p.current
}

// Refresh discards the cached material and re-runs resolution.
func (p *keyProvider) Refresh(ctx context.Context) *models.KeyMaterial {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.resolve(ctx)
	return p.current
}

func (p *keyProvider) resolve(ctx context.Context) *models.KeyMaterial {
	if candidate := p.fromVault(ctx); candidate != "" {
		if key := normalizeKey(candidate); key != nil {
			p.log.Info(ctx, "Signing key resolved from vault")
			return &models.KeyMaterial{Bytes: key, Source: constants.KeySourceVault, ResolvedAt: time.Now().UTC()}
		}
	}

	if candidate := strings.TrimSpace(p.tokenCfg.SigningSecret); candidate != "" {
		if key := normalizeKey(candidate); key != nil {
			p.log.Info(ctx, "Signing key resolved from static configuration")
			return &models.KeyMaterial{Bytes: key, Source: constants.KeySourceConfig, ResolvedAt: time.Now().UTC()}
		}
	}

	key := make([]byte, constants.MinSigningKeyBytes)
	_, _ = rand.Read(key)

	p.log.Warn(ctx, "No signing key configured; generated ephemeral fallback key. "+
		"Tokens will not survive a process restart.",
		logger.String("source", string(constants.KeySourceGenerated)),
	)
	return &models.KeyMaterial{Bytes: key, Source: constants.KeySourceGenerated, ResolvedAt: time.Now().UTC()}
}

// fromVault reads the persisted signing secret. An unconfigured or
// unreachable Vault is not an error; resolution falls through to the next
// source.
func (p *keyProvider) fromVault(ctx context.Context) string {
	if p.vaultCfg.Address == "" {
		return ""
	}

	vcfg := vault.DefaultConfig()
	vcfg.Address = p.vaultCfg.Address

	client, err := vault.NewClient(vcfg)
	if err != nil {
		p.log.Warn(ctx, "Failed to create vault client, falling through",
			logger.Err(err),
		)
		return ""
	}
	client.SetToken(p.vaultCfg.Token)

	secret, err := client.KVv2(p.vaultCfg.MountPath).Get(ctx, p.vaultCfg.SecretPath)
	if err != nil {
		p.log.Warn(ctx, "Failed to read signing secret from vault, falling through",
			logger.String("mount", p.vaultCfg.MountPath),
			logger.String("path", p.vaultCfg.SecretPath),
			logger.Err(err),
		)
		return ""
	}

	value, ok := secret.Data[p.vaultCfg.SecretKey].(string)
	if !ok || strings.TrimSpace(value) == "" {
		p.log.Warn(ctx, "Vault secret missing signing key field, falling through",
			logger.String("field", p.vaultCfg.SecretKey),
		)
		return ""
	}
	return value
}

// Validate round-trips a throwaway token through the codec with the given
// key. Any failure reports false.
func (p *keyProvider) Validate(ctx context.Context, key *models.KeyMaterial) bool {
	if key == nil || len(key.Bytes) < constants.MinSigningKeyBytes {
		return false
	}

	codec := NewTokenCodec(NewStaticKeyProvider(key), constants.DefaultIssuer, constants.DefaultAudience, p.log)
	raw, err := codec.Issue(ctx, "validation-probe", constants.TokenTypeAccess, nil, nil, nil, time.Minute)
	if err != nil {
		return false
	}
	_, err = codec.Verify(ctx, raw)
	return err == nil
}

// normalizeKey turns a candidate secret string into raw key bytes: purely
// hexadecimal strings are decoded, anything else is taken as UTF-8 bytes,
// and short keys are zero-padded to the HMAC-SHA256 minimum.
func normalizeKey(candidate string) []byte {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil
	}

	var key []byte
	if utils.IsHexString(candidate) {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			return nil
		}
		key = decoded
	} else {
		key = []byte(candidate)
	}

	if len(key) < constants.MinSigningKeyBytes {
		padded := make([]byte, constants.MinSigningKeyBytes)
		copy(padded, key)
		key = padded
	}
	return key
}

// staticKeyProvider serves a fixed key. Used for key validation round-trips
// and in tests.
type staticKeyProvider struct {
	key *models.KeyMaterial
}

// NewStaticKeyProvider wraps fixed key material in the provider interface.
func NewStaticKeyProvider(key *models.KeyMaterial) service.SigningKeyProvider {
	return &staticKeyProvider{key: key}
}

func (s *staticKeyProvider) Resolve(ctx context.Context) *models.KeyMaterial { return s.key }
func (s *staticKeyProvider) Refresh(ctx context.Context) *models.KeyMaterial { return s.key }
func (s *staticKeyProvider) Validate(ctx context.Context, key *models.KeyMaterial) bool {
	return key != nil && len(key.Bytes) >= constants.MinSigningKeyBytes
}
