package depot

import (
	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config holds global configuration for newly created worlds and archetypes
var Config config = config{
	denseCapacity:  256,
	sparseCapacity: 1024,
	logger:         zerolog.Nop(),
}

type config struct {
	denseCapacity  int
	sparseCapacity uint
	logger         zerolog.Logger
}

type envConfig struct {
	DenseCapacity  int    `config:"DEPOT_DENSE_CAPACITY"`
	SparseCapacity uint   `config:"DEPOT_SPARSE_CAPACITY"`
	LogLevel       string `config:"DEPOT_LOG_LEVEL"`
}

// SetDenseCapacity sets the initial capacity of a dense member array
func (c *config) SetDenseCapacity(n int) {
	c.denseCapacity = max(n, 0)
}

// SetSparseCapacity sets the initial bit length of a sparse member set
func (c *config) SetSparseCapacity(n uint) {
	c.sparseCapacity = n
}

// SetLogger sets the logger worlds derive their own loggers from
func (c *config) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// LoadEnv overrides the settings present in the environment. Unset variables
// keep their current values.
func (c *config) LoadEnv() error {
	var env envConfig
	if err := jlconfig.FromEnv().To(&env); err != nil {
		return eris.Wrap(err, "failed to read environment")
	}
	if env.DenseCapacity > 0 {
		c.SetDenseCapacity(env.DenseCapacity)
	}
	if env.SparseCapacity > 0 {
		c.SetSparseCapacity(env.SparseCapacity)
	}
	if env.LogLevel != "" {
		level, err := zerolog.ParseLevel(env.LogLevel)
		if err != nil {
			return eris.Wrapf(err, "invalid DEPOT_LOG_LEVEL %q", env.LogLevel)
		}
		c.logger = c.logger.Level(level)
	}
	return nil
}
