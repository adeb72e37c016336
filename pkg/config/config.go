// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

type Config struct {
	Port           string `env:"PORT"              envDefault:"3002"                  envDocs:"HTTP/WebSocket listen port"`
	GameServiceURL string `env:"GAME_SERVICE_URL"  envDefault:"http://game:3000"      envDocs:"base URL of the game service"`
	UserServiceURL string `env:"USER_SERVICE_URL"  envDefault:"http://localhost:3001" envDocs:"base URL of the users service"`
	DBPath         string `env:"DB_PATH"           envDefault:"matchmaking.db"        envDocs:"path to the sqlite database file"`
	JWTSecret      string `env:"JWT_SECRET"        envDefault:""                      envDocs:"HMAC secret for websocket auth tokens"`
	LogLevel       string `env:"LOG_LEVEL"         envDefault:"info"                  envDocs:"logrus level (trace|debug|info|warn|error)"`

	TickRateMs             int     `env:"TICK_RATE_MS"             envDefault:"1000"  envDocs:"matcher tick period in milliseconds"`
	BaseTolerance          int     `env:"BASE_TOLERANCE"           envDefault:"50"    envDocs:"base elo tolerance in rating points"`
	ExpansionIntervalMs    int     `env:"EXPANSION_INTERVAL_MS"    envDefault:"10000" envDocs:"wait time before each range expansion step"`
	ExpansionStep          float64 `env:"EXPANSION_STEP"           envDefault:"1.0"   envDocs:"range factor increment per expansion"`
	MatchAcceptTimeoutMs   int     `env:"MATCH_ACCEPT_TIMEOUT_MS"  envDefault:"15000" envDocs:"ready check timeout in milliseconds"`
	PenaltyDurationSeconds int     `env:"PENALTY_DURATION_SECONDS" envDefault:"300"   envDocs:"queue ban duration applied to faulty players"`
	GameClientTimeoutMs    int     `env:"GAME_CLIENT_TIMEOUT_MS"   envDefault:"3000"  envDocs:"timeout for game and users service calls"`
}

func (c *Config) TickRate() time.Duration {
	return time.Duration(c.TickRateMs) * time.Millisecond
}

func (c *Config) ExpansionInterval() time.Duration {
	return time.Duration(c.ExpansionIntervalMs) * time.Millisecond
}

func (c *Config) MatchAcceptTimeout() time.Duration {
	return time.Duration(c.MatchAcceptTimeoutMs) * time.Millisecond
}

func (c *Config) PenaltyDuration() time.Duration {
	return time.Duration(c.PenaltyDurationSeconds) * time.Second
}

func (c *Config) GameClientTimeout() time.Duration {
	return time.Duration(c.GameClientTimeoutMs) * time.Millisecond
}

// Default returns a Config populated with the documented defaults,
// without consulting the environment. Used by tests.
func Default() *Config {
	return &Config{
		Port:                   "3002",
		GameServiceURL:         "http://game:3000",
		UserServiceURL:         "http://localhost:3001",
		DBPath:                 "matchmaking.db",
		LogLevel:               "info",
		TickRateMs:             1000,
		BaseTolerance:          50,
		ExpansionIntervalMs:    10000,
		ExpansionStep:          1.0,
		MatchAcceptTimeoutMs:   15000,
		PenaltyDurationSeconds: 300,
		GameClientTimeoutMs:    3000,
	}
}
