package app

import (
	"time"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/utils"
)

// PatternThresholds holds the rule constants of the pattern engine. They are
// env-overridable for experiments but the defaults are the product policy and
// must stay in sync with the documented behavior.
type PatternThresholds struct {
	LatteMaxAmount        float64
	LatteMinCount         int
	ImpulseMinCount       int
	SplurgeMinAmount      float64
	SubscriptionMinAmount float64
	SubscriptionMinCount  int
}

type Config struct {
	Port string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiEmbedModel string

	GenerateTimeout time.Duration
	EmbedTimeout    time.Duration

	RedisAddr string

	Thresholds PatternThresholds
}

func LoadConfig(log *logger.Logger) Config {
	generateTimeoutSec := utils.GetEnvAsInt("GENERATE_TIMEOUT_SECONDS", 30, log)
	embedTimeoutSec := utils.GetEnvAsInt("EMBED_TIMEOUT_SECONDS", 10, log)
	return Config{
		Port:             utils.GetEnv("PORT", "8000", log),
		GeminiAPIKey:     utils.GetEnv("GEMINI_API_KEY", "", log),
		GeminiModel:      utils.GetEnv("GEMINI_MODEL", "gemini-2.0-flash-exp", log),
		GeminiEmbedModel: utils.GetEnv("GEMINI_EMBED_MODEL", "gemini-embedding-001", log),
		GenerateTimeout:  time.Duration(generateTimeoutSec) * time.Second,
		EmbedTimeout:     time.Duration(embedTimeoutSec) * time.Second,
		RedisAddr:        utils.GetEnv("REDIS_ADDR", "", log),
		Thresholds:       LoadThresholds(log),
	}
}

func LoadThresholds(log *logger.Logger) PatternThresholds {
	return PatternThresholds{
		LatteMaxAmount:        utils.GetEnvAsFloat64("PATTERN_LATTE_MAX_AMOUNT", 25.0, log),
		LatteMinCount:         utils.GetEnvAsInt("PATTERN_LATTE_MIN_COUNT", 3, log),
		ImpulseMinCount:       utils.GetEnvAsInt("PATTERN_IMPULSE_MIN_COUNT", 4, log),
		SplurgeMinAmount:      utils.GetEnvAsFloat64("PATTERN_SPLURGE_MIN_AMOUNT", 150.0, log),
		SubscriptionMinAmount: utils.GetEnvAsFloat64("PATTERN_SUBSCRIPTION_MIN_AMOUNT", 10.0, log),
		SubscriptionMinCount:  utils.GetEnvAsInt("PATTERN_SUBSCRIPTION_MIN_COUNT", 2, log),
	}
}

// DefaultThresholds returns the policy constants without consulting the
// environment. Tests use this.
func DefaultThresholds() PatternThresholds {
	return PatternThresholds{
		LatteMaxAmount:        25.0,
		LatteMinCount:         3,
		ImpulseMinCount:       4,
		SplurgeMinAmount:      150.0,
		SubscriptionMinAmount: 10.0,
		SubscriptionMinCount:  2,
	}
}
