package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Optimizer OptimizerConfig
	Tile      TileConfig
	Log       LogConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	// TileCacheTTL bounds redis entries for successfully rendered tiles.
	TileCacheTTL time.Duration
	// SourceCacheTTL bounds the in-process decoded source raster cache.
	SourceCacheTTL time.Duration
}

type StorageConfig struct {
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	// ArtifactPrefix is the logical key prefix for optimized artifacts.
	ArtifactPrefix string
	// PublicBaseURL is prepended to artifact keys in upload responses.
	PublicBaseURL string
}

type OptimizerConfig struct {
	// GDALTranslatePath / OGR2OGRPath locate the external conversion tools.
	GDALTranslatePath string
	OGR2OGRPath       string
	// SizeCeilingBytes gates the lossy raster rendition (50 MB default).
	SizeCeilingBytes int64
	// StagingDir holds temporary conversion inputs/outputs.
	StagingDir string
	// ToolTimeout bounds a single conversion subprocess.
	ToolTimeout time.Duration
}

type TileConfig struct {
	// MaxConcurrentRenders bounds simultaneous decode/extract/render work.
	MaxConcurrentRenders int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled       bool
	SweepInterval time.Duration
	// StagingMaxAge is how old a staging file may get before the sweeper
	// considers it orphaned.
	StagingMaxAge time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			TileCacheTTL:   time.Duration(viper.GetInt("TILE_CACHE_TTL")) * time.Second,
			SourceCacheTTL: time.Duration(viper.GetInt("SOURCE_CACHE_TTL")) * time.Second,
		},
		Storage: StorageConfig{
			Endpoint:       viper.GetString("STORAGE_ENDPOINT"),
			Region:         viper.GetString("STORAGE_REGION"),
			Bucket:         viper.GetString("STORAGE_BUCKET"),
			AccessKey:      viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:      viper.GetString("STORAGE_SECRET_KEY"),
			ForcePathStyle: viper.GetBool("STORAGE_FORCE_PATH_STYLE"),
			ArtifactPrefix: viper.GetString("STORAGE_ARTIFACT_PREFIX"),
			PublicBaseURL:  viper.GetString("STORAGE_PUBLIC_BASE_URL"),
		},
		Optimizer: OptimizerConfig{
			GDALTranslatePath: viper.GetString("OPTIMIZER_GDAL_TRANSLATE"),
			OGR2OGRPath:       viper.GetString("OPTIMIZER_OGR2OGR"),
			SizeCeilingBytes:  viper.GetInt64("OPTIMIZER_SIZE_CEILING_BYTES"),
			StagingDir:        viper.GetString("OPTIMIZER_STAGING_DIR"),
			ToolTimeout:       time.Duration(viper.GetInt("OPTIMIZER_TOOL_TIMEOUT")) * time.Second,
		},
		Tile: TileConfig{
			MaxConcurrentRenders: viper.GetInt("TILE_MAX_CONCURRENT_RENDERS"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:       viper.GetBool("WORKER_ENABLED"),
			SweepInterval: time.Duration(viper.GetInt("WORKER_SWEEP_INTERVAL")) * time.Second,
			StagingMaxAge: time.Duration(viper.GetInt("WORKER_STAGING_MAX_AGE")) * time.Second,
		},
	}

	// Set default values if not provided
	if cfg.Cache.TileCacheTTL == 0 {
		cfg.Cache.TileCacheTTL = 24 * time.Hour
	}
	if cfg.Cache.SourceCacheTTL == 0 {
		cfg.Cache.SourceCacheTTL = 10 * time.Minute
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-central-1"
	}
	if cfg.Optimizer.GDALTranslatePath == "" {
		cfg.Optimizer.GDALTranslatePath = "gdal_translate"
	}
	if cfg.Optimizer.OGR2OGRPath == "" {
		cfg.Optimizer.OGR2OGRPath = "ogr2ogr"
	}
	if cfg.Optimizer.SizeCeilingBytes == 0 {
		cfg.Optimizer.SizeCeilingBytes = 50 * 1024 * 1024
	}
	if cfg.Optimizer.StagingDir == "" {
		cfg.Optimizer.StagingDir = os.TempDir()
	}
	if cfg.Optimizer.ToolTimeout == 0 {
		cfg.Optimizer.ToolTimeout = 120 * time.Second
	}
	if cfg.Tile.MaxConcurrentRenders == 0 {
		cfg.Tile.MaxConcurrentRenders = 16
	}
	if cfg.Worker.SweepInterval == 0 {
		cfg.Worker.SweepInterval = 10 * time.Minute
	}
	if cfg.Worker.StagingMaxAge == 0 {
		cfg.Worker.StagingMaxAge = time.Hour
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
