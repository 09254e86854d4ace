package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	// MaxAttempts bounds the retry loop for transient provider failures.
	MaxAttempts = 8
	// RetryInitialInterval is the initial interval for exponential backoff.
	RetryInitialInterval = time.Second
	// RetryMultiplier doubles the interval on each failure.
	RetryMultiplier = 2.0
)

// newRetryBackoff creates the exponential backoff for provider retries.
// There is no elapsed-time cap: the enclosing per-endpoint request timeout
// bounds the loop through the context.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.Multiplier = RetryMultiplier
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxAttempts-1), ctx)
}

// Phrases identifying transient provider failures: rate limiting and
// throttling across providers, plus the 5xx-class errors OpenAI-compatible
// backends (DeepSeek in particular) answer instead of 429.
var transientPhrases = []string{
	"429",
	"rate limit",
	"rate_limit",
	"throttl",
	"too many requests",
	"overloaded",
	"internal server error",
	"500",
	"502",
	"503",
	"529",
}

// retryable classifies a provider error. Anything not recognizably
// transient propagates immediately.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// generateWithRetry calls the model, retrying transient failures with
// exponential backoff.
func generateWithRetry(ctx context.Context, chatModel model.ToolCallingChatModel, messages []*schema.Message) (*schema.Message, error) {
	var msg *schema.Message

	operation := func() error {
		var err error
		msg, err = chatModel.Generate(ctx, messages)
		if err == nil {
			return nil
		}
		if retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, newRetryBackoff(ctx)); err != nil {
		return nil, err
	}
	return msg, nil
}
