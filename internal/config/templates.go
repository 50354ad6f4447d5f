package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Strategist Configuration

[model]
# Days until expiration used by the pricing model
time_to_expiry_days = 30.0
# Annual risk-free rate in percent
risk_free_rate_percent = 5.0
# Annual volatility in percent
volatility_percent = 20.0

[market]
# Spot price of a new strategy
underlying_price = 100.0

[store]
# SQLite database; relative paths resolve against this directory
path = "strategies.db"

[server]
host = "127.0.0.1"
port = 8080
read_timeout = "10s"
write_timeout = "30s"
shutdown_timeout = "5s"
# CORS origins allowed to call the API
allowed_origins = ["*"]

[log]
# Log level: debug, info, warn, error
level = "info"
console = true
# Write rotating logs under logs/ in this directory
file = false
path = ""

[ui]
# Enable colored output
color_enabled = true
# Decimal places in tables
decimals = 2
# ASCII payoff chart size
chart_width = 72
chart_height = 20
`

// createTemplateConfig writes the commented default config file.
func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
