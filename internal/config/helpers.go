package config

import (
	"signalforge/pkg/market"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on
// error. It is the fallback for binaries whose app config names no market
// section.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}
