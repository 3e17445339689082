package llm

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/common"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		wantNoService bool
	}{
		{
			name:          "empty provider",
			config:        Config{},
			wantNoService: true,
		},
		{
			name:          "provider none",
			config:        Config{Provider: "none", APIKey: "irrelevant"},
			wantNoService: true,
		},
		{
			name:          "unknown provider",
			config:        Config{Provider: "cortex", APIKey: "test-key"},
			wantNoService: true,
		},
		{
			name:          "openai without key",
			config:        Config{Provider: "openai"},
			wantNoService: true,
		},
		{
			name:          "anthropic without key",
			config:        Config{Provider: "anthropic"},
			wantNoService: true,
		},
		{
			name:   "openai",
			config: Config{Provider: "openai", APIKey: "test-key"},
		},
		{
			name:   "anthropic",
			config: Config{Provider: "anthropic", APIKey: "test-key"},
		},
		{
			name:   "gemini",
			config: Config{Provider: "gemini", APIKey: "test-key"},
		},
		{
			name:   "provider name is case insensitive",
			config: Config{Provider: "OpenAI", APIKey: "test-key"},
		},
		{
			name:   "claude aliases anthropic",
			config: Config{Provider: "claude", APIKey: "test-key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantNoService {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrNoCompletionService)
				assert.Nil(t, client)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, client)

			closer, ok := client.(io.Closer)
			require.True(t, ok, "expected the wrapped client to be closable")
			assert.NoError(t, closer.Close())
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		cfg := Config{APIKey: "k"}.withDefaults(defaultOpenAIModel)
		assert.Equal(t, defaultOpenAIModel, cfg.Model)
		assert.Equal(t, defaultMaxTokens, cfg.MaxTokens)
		assert.Equal(t, defaultTemperature, cfg.Temperature)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := Config{APIKey: "k", Model: "gpt-4o", MaxTokens: 512, Temperature: 0.7}.withDefaults(defaultOpenAIModel)
		assert.Equal(t, "gpt-4o", cfg.Model)
		assert.Equal(t, 512, cfg.MaxTokens)
		assert.Equal(t, 0.7, cfg.Temperature)
	})
}
