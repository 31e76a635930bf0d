package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	engine "signal_bot/internal/modules/engine/service"
	market "signal_bot/internal/modules/market/service"
	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// analyze: разовый прогон движка по списку монет, результат в stdout (JSON).
func main() {
	flags := pflag.NewFlagSet("analyze", pflag.ExitOnError)
	flags.String("config", "configs/values_local.yaml", "path to yaml config")
	flags.StringSlice("symbols", nil, "symbols, e.g. BTC-USDT-SWAP,ETH-USDT-SWAP (default: scheduler.symbols)")
	flags.String("provider", "", "okx | binance (default: market.provider)")
	flags.Bool("pretty", false, "indent JSON output")
	flags.Duration("timeout", 60*time.Second, "overall timeout")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		log.Fatal(err)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(cfg.LogLevel, "signal_analyze"); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if p := v.GetString("provider"); p != "" {
		cfg.Market.Provider = p
	}

	symbols := v.GetStringSlice("symbols")
	if len(symbols) == 0 {
		symbols = cfg.Scheduler.Symbols
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols: pass --symbols or set scheduler.symbols")
	}

	var provider market.Provider = market.NewOKX(cfg.Market)
	if strings.EqualFold(cfg.Market.Provider, "binance") {
		provider = market.NewBinance(cfg.Market)
	}
	e := engine.NewEngine(cfg.Engine, provider)

	ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
	defer cancel()

	out := make([]models.Signal, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, e.Analyze(ctx, strings.ToUpper(strings.TrimSpace(s))))
	}

	var b []byte
	if v.GetBool("pretty") {
		b, err = sonic.ConfigStd.MarshalIndent(out, "", "  ")
	} else {
		b, err = sonic.Marshal(out)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))
}
