package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// LoadKeys resolves the signing key pair from inline values or files. Inline
// values win when both are set.
func LoadKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyPair, error) {
	priv, err := keyMaterial(cfg.PrivateKey, cfg.PrivateKeyFile)
	if err != nil {
		return nil, err
	}
	pub, err := keyMaterial(cfg.PublicKey, cfg.PublicKeyFile)
	if err != nil {
		return nil, err
	}

	keys, err := jwtx.LoadKeyPair(priv, pub)
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}

	logger.Info("signing keys loaded",
		"kid", keys.KID(),
		"bits", keys.Public().N.BitLen(),
	)
	return keys, nil
}

func keyMaterial(inline, path string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if path == "" {
		return "", fmt.Errorf("%w: no key material", jwtx.ErrKeyFormat)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}
	return string(b), nil
}
