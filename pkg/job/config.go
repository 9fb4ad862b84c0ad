package job

// Config holds worker pool settings.
type Config struct {
	// Queues maps extra queue names to worker counts, e.g. "audit:5".
	Queues     map[string]int `env:"JOB_QUEUES" yaml:"queues,omitempty"`
	MaxWorkers int            `env:"JOB_MAX_WORKERS" envDefault:"10" yaml:"max_workers"`
}
