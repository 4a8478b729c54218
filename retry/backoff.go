package retry

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind partitions provider errors by how the handler reacts to them.
type Kind int

const (
	// KindGeneric retries with plain exponential backoff.
	KindGeneric Kind = iota
	// KindRateLimit retries with a stretched exponential backoff.
	KindRateLimit
	// KindDailyLimit is terminal; the advertised wait exceeds what a
	// request loop can reasonably sit out.
	KindDailyLimit
	// KindRecoverableToolCall is not retried at all: the error body carries
	// the generation text and the caller recovers tool calls from it.
	KindRecoverableToolCall
)

// dailyLimitCutoff separates a rate-limit pause worth sitting out from a
// quota reset that is not.
const dailyLimitCutoff = 5 * time.Minute

var (
	failedGenerationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`'failed_generation':\s*'([^']+)'`),
		regexp.MustCompile(`"failed_generation":\s*"([^"]+)"`),
	}

	// Wait spellings providers embed in rate-limit messages: "2m59.56s" or "7.66s".
	minSecWaitPattern = regexp.MustCompile(`(\d+)m(\d+(?:\.\d+)?)?s`)
	secWaitPattern    = regexp.MustCompile(`(\d+(?:\.\d+)?)s`)
)

// Classification is the pure outcome of inspecting one provider error.
type Classification struct {
	Kind Kind
	// Wait is the provider-advertised pause, zero when none was parseable.
	Wait time.Duration
	// Payload is the failed_generation text for KindRecoverableToolCall.
	Payload string
}

// Classify inspects an error message and decides how the handler reacts.
// Pure function of the message text; no clock, no I/O.
func Classify(err error) Classification {
	msg := err.Error()
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "tool_use_failed") || strings.Contains(lower, "failed_generation") {
		if payload := extractFailedGeneration(msg); payload != "" {
			return Classification{Kind: KindRecoverableToolCall, Payload: payload}
		}
	}

	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") {
		wait, _ := ParseWait(msg)
		daily := strings.Contains(lower, "tokens per day") || strings.Contains(lower, "tpd")
		if daily && wait > dailyLimitCutoff {
			return Classification{Kind: KindDailyLimit, Wait: wait}
		}
		return Classification{Kind: KindRateLimit, Wait: wait}
	}

	return Classification{Kind: KindGeneric}
}

// extractFailedGeneration pulls the generation payload out of a provider
// error body, trying the single-quoted spelling first. Quote escapes are
// undone so the payload reaches fallback extraction as the model wrote it.
func extractFailedGeneration(msg string) string {
	for _, pattern := range failedGenerationPatterns {
		if m := pattern.FindStringSubmatch(msg); m != nil {
			payload := strings.ReplaceAll(m[1], `\'`, "'")
			return strings.ReplaceAll(payload, `\"`, `"`)
		}
	}
	return ""
}

// ParseWait extracts a provider-advertised wait like "2m59.56s" or "7.66s"
// from an error message.
func ParseWait(msg string) (time.Duration, bool) {
	if m := minSecWaitPattern.FindStringSubmatch(msg); m != nil {
		mins, _ := strconv.Atoi(m[1])
		secs := 0.0
		if m[2] != "" {
			secs, _ = strconv.ParseFloat(m[2], 64)
		}
		return time.Duration((float64(mins)*60 + secs) * float64(time.Second)), true
	}
	if m := secWaitPattern.FindStringSubmatch(msg); m != nil {
		secs, _ := strconv.ParseFloat(m[1], 64)
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}

// Delay computes the pause before retry attempt (0-based). Rate limits
// stretch the exponential curve by 3x, since the provider is telling us to
// slow down harder than a transient failure would. The advertised wait only
// feeds the daily-limit cutoff in Classify; it is never slept on directly.
func Delay(c Classification, attempt int, base time.Duration) time.Duration {
	backoff := base * (1 << attempt)
	if c.Kind == KindRateLimit {
		return backoff * 3
	}
	return backoff
}
