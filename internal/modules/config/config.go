package config

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	redisAddrENV      = "REDIS_ADDR"

	defaultConfigFile = "values_local.yaml"
)

// Config ...
type Config struct {
	Service struct {
		Name       string `yaml:"name"`
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
	} `yaml:"service"`
	LogLevel string `yaml:"log_level"`

	Telegram struct {
		Token       string `yaml:"token"`
		AdminChatID int64  `yaml:"admin_chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	Market    MarketConfig    `yaml:"market"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Engine    EngineConfig    `yaml:"engine"`
}

type MarketConfig struct {
	Provider      string        `yaml:"provider"` // okx | binance
	BaseURL       string        `yaml:"base_url"` // пусто: адрес провайдера по умолчанию
	WSURL         string        `yaml:"ws_url"`
	StreamEnabled bool          `yaml:"stream_enabled"`
	Timeout       time.Duration `yaml:"timeout"`
	APIKey        string        `yaml:"api_key"`
	APISecret     string        `yaml:"api_secret"`
}

type SchedulerConfig struct {
	Interval          time.Duration `yaml:"interval"`
	Symbols           []string      `yaml:"symbols"`
	WatchTopN         int           `yaml:"watch_top_n"` // если symbols пуст
	Concurrency       int           `yaml:"concurrency"`
	MinConfidence     int           `yaml:"min_confidence"`
	CooldownPerSymbol time.Duration `yaml:"cooldown_per_symbol"`
}

type TimeframeConfig struct {
	Interval string  `yaml:"interval"`
	Limit    int     `yaml:"limit"`
	Weight   float64 `yaml:"weight"` // только для документации, в формулах не участвует
}

// EngineConfig: неизменяемые параметры движка сигналов.
type EngineConfig struct {
	Higher TimeframeConfig `yaml:"higher"`
	Middle TimeframeConfig `yaml:"middle"`
	Lowest TimeframeConfig `yaml:"lowest"`

	TargetMultipliers []float64 `yaml:"target_multipliers"`
	StopMultiplier    float64   `yaml:"stop_multiplier"`
	MinProbability    float64   `yaml:"min_probability"`
	BiasThreshold     float64   `yaml:"bias_threshold"`

	VolumeSpikeFactor   float64 `yaml:"volume_spike_factor"`
	VolumeSpikeLookback int     `yaml:"volume_spike_lookback"`
	ATRPeriod           int     `yaml:"atr_period"`
	EMAFast             int     `yaml:"ema_fast"`
	EMASlow             int     `yaml:"ema_slow"`
	RSIPeriod           int     `yaml:"rsi_period"`

	MomentumPricePct float64 `yaml:"momentum_price_pct"`
	MomentumATRFrac  float64 `yaml:"momentum_atr_frac"`

	// Сайзинг: риск = AccountSize * RiskPct%
	AccountSize float64 `yaml:"account_size"`
	RiskPct     float64 `yaml:"risk_pct"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Higher:              TimeframeConfig{Interval: "1h", Limit: 200, Weight: 0.5},
		Middle:              TimeframeConfig{Interval: "15m", Limit: 200, Weight: 0.3},
		Lowest:              TimeframeConfig{Interval: "5m", Limit: 200, Weight: 0.2},
		TargetMultipliers:   []float64{1.0, 1.5, 2.0, 3.0},
		StopMultiplier:      1.0,
		MinProbability:      0.52,
		BiasThreshold:       0.6,
		VolumeSpikeFactor:   1.8,
		VolumeSpikeLookback: 9,
		ATRPeriod:           14,
		EMAFast:             8,
		EMASlow:             34,
		RSIPeriod:           14,
		MomentumPricePct:    0.0006,
		MomentumATRFrac:     0.15,
		AccountSize:         1000,
		RiskPct:             1.0,
	}
}

func defaults() Config {
	var c Config
	c.Service.Name = "signal_bot"
	c.Service.Host = "0.0.0.0"
	c.Service.PublicPort = 8080
	c.LogLevel = "info"
	c.Redis.TTL = 30 * time.Second
	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831
	c.Market = MarketConfig{
		Provider: "okx",
		WSURL:    "wss://ws.okx.com:8443/ws/v5/business",
		Timeout:  10 * time.Second,
	}
	c.Scheduler = SchedulerConfig{
		Interval:          5 * time.Minute,
		Symbols:           []string{"BTC-USDT-SWAP", "ETH-USDT-SWAP", "SOL-USDT-SWAP"},
		WatchTopN:         20,
		Concurrency:       4,
		MinConfidence:     60,
		CooldownPerSymbol: 30 * time.Minute,
	}
	c.Engine = DefaultEngineConfig()
	return c
}

// NewConfig читает configs/<CONFIG_FILE> через viper, накладывает env и
// раскладывает в типизированный Config.
func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load("configs/" + configFileName)
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("telegram.token", tokenTelegramENV)
	_ = v.BindEnv("db_dsn", databaseDSN)
	_ = v.BindEnv("redis.addr", redisAddrENV)

	// дефолты грузим как базовый конфиг: так viper знает все ключи и env их перекрывает
	base, err := yaml.Marshal(defaults())
	if err != nil {
		return nil, errors.Wrap(err, "marshal defaults")
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, errors.Wrap(err, "read defaults")
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (e EngineConfig) Validate() error {
	if e.EMAFast >= e.EMASlow {
		return errors.New("engine.ema_fast must be < engine.ema_slow")
	}
	if len(e.TargetMultipliers) == 0 {
		return errors.New("engine.target_multipliers is empty")
	}
	for _, m := range e.TargetMultipliers {
		if m <= 0 {
			return errors.Errorf("engine.target_multipliers: %v must be > 0", m)
		}
	}
	if e.StopMultiplier <= 0 {
		return errors.New("engine.stop_multiplier must be > 0")
	}
	if e.MinProbability <= 0 || e.MinProbability >= 1 {
		return errors.New("engine.min_probability must be in (0,1)")
	}
	if e.Middle.Interval == "" || e.Lowest.Interval == "" {
		return errors.New("engine: middle and lowest timeframes are required")
	}
	return nil
}
