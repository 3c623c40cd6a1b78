package embeddings

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// NewEmbedder selects the embedding backend. A readable local model
// directory wins; otherwise the Gemini API serves. Offline mode without a
// usable local model is a hard error rather than a silent fall back to the
// network.
func NewEmbedder(cfg *common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	if localModelReadable(cfg.LocalModelPath) {
		logger.Info().
			Str("local_model_path", cfg.LocalModelPath).
			Msg("Using offline embedding backend")
		return NewOfflineEmbedder(cfg, logger)
	}

	if cfg.OfflineMode {
		return nil, fmt.Errorf("offline mode is enabled but local_model_path %q is not a readable directory", cfg.LocalModelPath)
	}

	if cfg.LocalModelPath != "" {
		logger.Warn().
			Str("local_model_path", cfg.LocalModelPath).
			Msg("Local model path is not readable, using the Gemini API")
	}
	return NewGeminiEmbedder(cfg, logger)
}

func localModelReadable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
