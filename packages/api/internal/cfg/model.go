package cfg

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
)

type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreRedis    StoreBackend = "redis"
	StorePostgres StoreBackend = "postgres"
)

type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	StoreBackend StoreBackend `env:"STORE_BACKEND" envDefault:"memory"`

	PostgresConnectionString string `env:"POSTGRES_CONNECTION_STRING"`
	PostgresMaxConnections   int    `env:"POSTGRES_MAX_CONNECTIONS" envDefault:"10"`
	PostgresMinIdle          int    `env:"POSTGRES_MIN_IDLE" envDefault:"1"`

	RedisURL        string `env:"REDIS_URL"`
	RedisClusterURL string `env:"REDIS_CLUSTER_URL"`

	// EventStreamName is the redis stream lifecycle events are published to.
	// Without redis events stay in process.
	EventStreamName string `env:"EVENT_STREAM_NAME" envDefault:"lifecycle-events"`
	// CleanupResultStreamName is the redis stream the cleanup workers report
	// AccountCleanupSucceeded and AccountCleanupFailed on.
	CleanupResultStreamName string `env:"CLEANUP_RESULT_STREAM_NAME" envDefault:"account-cleanup-results"`

	// CostExplorerEnabled reads lease spend from AWS Cost Explorer during sweeps.
	CostExplorerEnabled bool `env:"COST_EXPLORER_ENABLED"`

	SweepInterval        time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SweepConcurrency     int           `env:"SWEEP_CONCURRENCY" envDefault:"8"`
	ReconcileGracePeriod time.Duration `env:"RECONCILE_GRACE_PERIOD" envDefault:"15m"`

	AccountClaimAttempts  int `env:"ACCOUNT_CLAIM_ATTEMPTS" envDefault:"3"`
	ConflictRetryAttempts int `env:"CONFLICT_RETRY_ATTEMPTS" envDefault:"5"`

	TemplateCacheTTL time.Duration `env:"TEMPLATE_CACHE_TTL" envDefault:"1m"`

	// LeaseCreateRatePerMinute limits lease requests per user. Needs redis, zero disables it.
	LeaseCreateRatePerMinute int `env:"LEASE_CREATE_RATE_PER_MINUTE" envDefault:"10"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	LaunchDarklyAPIKey string `env:"LAUNCH_DARKLY_API_KEY"`

	DriftScanEnabled bool   `env:"DRIFT_SCAN_ENABLED"`
	AWSRegion        string `env:"AWS_REGION" envDefault:"us-east-1"`
	// OrgOUIDs maps account statuses to organizational units, e.g. "Available:ou-1,Active:ou-2".
	OrgOUIDs string `env:"ORG_OU_IDS"`

	// Defaults used when a LaunchDarkly flag is missing.
	Defaults GlobalDefaults `envPrefix:"DEFAULT_"`
}

type GlobalDefaults struct {
	MaintenanceMode                      bool     `env:"MAINTENANCE_MODE"`
	UnfreezeEnabled                      bool     `env:"UNFREEZE_ENABLED"`
	TermsOfService                       string   `env:"TERMS_OF_SERVICE"`
	ManagedRegions                       []string `env:"MANAGED_REGIONS" envDefault:"us-east-1"`
	MaxLeasesPerUser                     int      `env:"MAX_LEASES_PER_USER" envDefault:"1"`
	RequireMaxSpend                      bool     `env:"REQUIRE_MAX_SPEND" envDefault:"true"`
	MaxBudget                            string   `env:"MAX_BUDGET" envDefault:"0"`
	MaxDurationHours                     int      `env:"MAX_DURATION_HOURS"`
	CleanupNumSuccessfulAttemptsToFinish int      `env:"CLEANUP_SUCCESSFUL_ATTEMPTS" envDefault:"3"`
	CleanupNumFailedAttemptsToAbort      int      `env:"CLEANUP_FAILED_ATTEMPTS" envDefault:"3"`
}

func (d GlobalDefaults) GlobalConfig() (globalconfig.GlobalConfig, error) {
	maxBudget, err := decimal.NewFromString(d.MaxBudget)
	if err != nil {
		return globalconfig.GlobalConfig{}, fmt.Errorf("DEFAULT_MAX_BUDGET is not a decimal: %w", err)
	}

	return globalconfig.GlobalConfig{
		MaintenanceMode:                      d.MaintenanceMode,
		UnfreezeEnabled:                      d.UnfreezeEnabled,
		TermsOfService:                       d.TermsOfService,
		ManagedRegions:                       d.ManagedRegions,
		MaxLeasesPerUser:                     d.MaxLeasesPerUser,
		RequireMaxSpend:                      d.RequireMaxSpend,
		MaxBudget:                            maxBudget,
		MaxDurationHours:                     d.MaxDurationHours,
		CleanupNumSuccessfulAttemptsToFinish: d.CleanupNumSuccessfulAttemptsToFinish,
		CleanupNumFailedAttemptsToAbort:      d.CleanupNumFailedAttemptsToAbort,
	}, nil
}

func (c Config) UsesRedis() bool {
	return c.RedisURL != "" || c.RedisClusterURL != ""
}

func (c Config) validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if !c.UsesRedis() {
			errs = append(errs, errors.New("STORE_BACKEND=redis requires REDIS_URL or REDIS_CLUSTER_URL"))
		}
	case StorePostgres:
		if c.PostgresConnectionString == "" {
			errs = append(errs, errors.New("STORE_BACKEND=postgres requires POSTGRES_CONNECTION_STRING"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be positive"))
	}

	if c.SweepConcurrency <= 0 {
		errs = append(errs, errors.New("SWEEP_CONCURRENCY must be positive"))
	}

	if _, err := c.Defaults.GlobalConfig(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func Parse() (Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return config, err
	}

	return config, config.validate()
}
