package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/okian/gigradar/internal/config"
	"github.com/okian/gigradar/pkg/logger"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads configuration once and initializes logging from it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if c.configFlag != nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				_ = os.Setenv("GIGRADAR_CONFIG", path)
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if err := logger.InitWith(os.Stderr, cfg.LogFormat); err != nil {
			c.configErr = fmt.Errorf("initialize logging: %w", err)
			return
		}
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			_ = logger.SetLevelString("info")
		}
		c.config = cfg
	})
	return c.config, c.configErr
}
