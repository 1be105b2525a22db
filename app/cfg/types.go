package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	Port         string
	WorkerCount  int
	PollInterval int
	FetchTimeout int
	CronSecret   string
	IdentityURL  string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
