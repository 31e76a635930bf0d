package config

import "go.uber.org/fx"

// Module отдаёт уже прочитанный Config и его секции как fx-провайдеры.
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
		fx.Provide(
			func(c *Config) EngineConfig { return c.Engine },
		),
	)
}
