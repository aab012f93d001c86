package config

import (
	"fmt"
	"time"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/policy"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// policyFile mirrors the YAML layout:
//
//	capacity:
//	  krai: {core_member: 3, mechanics: 3, adviser: 1}
//	tickets:
//	  global: 600
//	  default_cap: 40
//	  unit_price: 25000
//	  window: 24h
//	  privileged:
//	    - {name: Universitas Gadjah Mada, cap: 100}
//
// Privileged caps are a list because viper folds map keys to lower case.
type policyFile struct {
	Capacity map[string]map[string]int `mapstructure:"capacity"`
	Tickets  struct {
		Global     *int   `mapstructure:"global"`
		DefaultCap *int   `mapstructure:"default_cap"`
		UnitPrice  string `mapstructure:"unit_price"`
		Window     string `mapstructure:"window"`
		Privileged []struct {
			Name string `mapstructure:"name"`
			Cap  int    `mapstructure:"cap"`
		} `mapstructure:"privileged"`
	} `mapstructure:"tickets"`
}

// LoadPolicy returns the default policy with the overrides found in path.
// An empty path yields the defaults.
func LoadPolicy(path string) (policy.Policy, error) {
	p := policy.Default()
	if path == "" {
		return p, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return p, fmt.Errorf("read policy file: %w", err)
	}

	var f policyFile
	if err := v.Unmarshal(&f); err != nil {
		return p, fmt.Errorf("decode policy file: %w", err)
	}

	for div, roles := range f.Capacity {
		d, err := models.ParseDivision(div)
		if err != nil {
			return p, err
		}
		if p.Roster[d] == nil {
			p.Roster[d] = map[models.Role]int{}
		}
		for role, n := range roles {
			r, err := models.ParseRole(role)
			if err != nil {
				return p, err
			}
			if n < 0 {
				return p, fmt.Errorf("capacity %s/%s is negative", d, r)
			}
			p.Roster[d][r] = n
		}
	}

	t := f.Tickets
	if t.Global != nil {
		p.GlobalTickets = *t.Global
	}
	if t.DefaultCap != nil {
		p.DefaultCap = *t.DefaultCap
	}
	if t.Window != "" {
		window, err := time.ParseDuration(t.Window)
		if err != nil {
			return p, fmt.Errorf("window: %w", err)
		}
		p.OrderWindow = window
	}
	if t.UnitPrice != "" {
		price, err := decimal.NewFromString(t.UnitPrice)
		if err != nil {
			return p, fmt.Errorf("unit_price: %w", err)
		}
		p.UnitPrice = price
	}
	if len(t.Privileged) > 0 {
		p.PrivilegedCaps = make(map[string]int, len(t.Privileged))
		for _, pc := range t.Privileged {
			p.PrivilegedCaps[pc.Name] = pc.Cap
		}
	}

	log.Infof("policy loaded from %s", path)
	return p, nil
}
