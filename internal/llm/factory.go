package llm

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/sudoCommit/alumnium/pkg/types"
)

const defaultMaxTokens = 8192

// NewChatModel constructs the Eino chat model for the given provider and
// model name. Credentials come from the environment; the OpenAI-compatible
// providers (DeepSeek, MistralAI, xAI) route through the OpenAI component
// with their own base URLs.
func NewChatModel(ctx context.Context, m types.Model) (model.ToolCallingChatModel, error) {
	switch m.Provider {
	case types.ProviderAnthropic:
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:    apiKey,
			Model:     m.Name,
			MaxTokens: defaultMaxTokens,
		})

	case types.ProviderAWSAnthropic:
		return claude.NewChatModel(ctx, &claude.Config{
			ByBedrock: true,
			Region:    awsRegion(),
			Model:     m.Name,
			MaxTokens: defaultMaxTokens,
		})

	case types.ProviderOpenAI:
		return newOpenAICompatible(ctx, m.Name, "", "OPENAI_API_KEY")

	case types.ProviderAzureOpenAI:
		apiKey := os.Getenv("AZURE_OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("AZURE_OPENAI_API_KEY not set")
		}
		maxTokens := defaultMaxTokens
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:              apiKey,
			Model:               m.Name,
			MaxCompletionTokens: &maxTokens,
			BaseURL:             os.Getenv("AZURE_OPENAI_ENDPOINT"),
			ByAzure:             true,
			APIVersion:          "2024-02-15-preview",
		})

	case types.ProviderDeepSeek:
		return newOpenAICompatible(ctx, m.Name, "https://api.deepseek.com/v1", "DEEPSEEK_API_KEY")

	case types.ProviderMistralAI:
		return newOpenAICompatible(ctx, m.Name, "https://api.mistral.ai/v1", "MISTRAL_API_KEY")

	case types.ProviderXAI:
		return newOpenAICompatible(ctx, m.Name, "https://api.x.ai/v1", "XAI_API_KEY")

	case types.ProviderGoogle:
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Google client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  m.Name,
		})

	case types.ProviderOllama:
		baseURL := os.Getenv("OLLAMA_HOST")
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   m.Name,
		})

	case types.ProviderAWSMeta:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion()))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return newBedrockChatModel(bedrockruntime.NewFromConfig(awsCfg), m.Name), nil

	default:
		return nil, fmt.Errorf("unknown provider: %q", m.Provider)
	}
}

func newOpenAICompatible(ctx context.Context, modelName, baseURL, keyEnv string) (model.ToolCallingChatModel, error) {
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s not set", keyEnv)
	}
	maxTokens := defaultMaxTokens
	cfg := &openai.ChatModelConfig{
		APIKey:              apiKey,
		Model:               modelName,
		MaxCompletionTokens: &maxTokens,
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewChatModel(ctx, cfg)
}

func awsRegion() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "us-east-1"
}
