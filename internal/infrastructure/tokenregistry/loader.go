package tokenregistry

import (
	"encoding/json"
	"fmt"
	"os"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
)

// LoadVerifiedTokens reads a JSON file holding the static verified-token set
// for a chain. A missing path yields an empty set: verification then relies
// entirely on per-chain config. The set is consulted at runtime but never
// mutated.
func LoadVerifiedTokens(path string, logger port.Logger) ([]entity.VerifiedToken, error) {
	if path == "" {
		logger.Info("No verified tokens file configured, starting with an empty set")
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verified tokens file %s: %w", path, err)
	}

	var tokens []entity.VerifiedToken
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verified tokens from %s: %w", path, err)
	}

	valid := make([]entity.VerifiedToken, 0, len(tokens))
	for _, tok := range tokens {
		if tok.ID == "" {
			logger.Warn("Verified token entry without id, skipping", "file", path, "symbol", tok.Symbol)
			continue
		}
		valid = append(valid, tok)
	}

	logger.Info("Loaded verified token set", "file", path, "count", len(valid))
	return valid, nil
}
