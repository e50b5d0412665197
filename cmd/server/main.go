package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	metadataURL = configVar[string]{
		envKey:       "METADATA_URL",
		flagKey:      "metadata-url",
		defaultValue: "",
	}
	metadataTimeout = configVar[time.Duration]{
		envKey:       "METADATA_TIMEOUT",
		flagKey:      "metadata-timeout",
		defaultValue: 5 * time.Second,
	}
	catalogFile = configVar[string]{
		envKey:       "CATALOG_FILE",
		flagKey:      "catalog-file",
		defaultValue: "",
	}
	metadataCacheTTL = configVar[time.Duration]{
		envKey:       "METADATA_CACHE_TTL",
		flagKey:      "metadata-cache-ttl",
		defaultValue: time.Minute,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	emptyRoomInterval = configVar[time.Duration]{
		envKey:       "EMPTY_ROOM_INTERVAL",
		flagKey:      "empty-room-interval",
		defaultValue: 5 * time.Minute,
	}
	idleSweepInterval = configVar[time.Duration]{
		envKey:       "IDLE_SWEEP_INTERVAL",
		flagKey:      "idle-sweep-interval",
		defaultValue: time.Minute,
	}
	idleThreshold = configVar[time.Duration]{
		envKey:       "IDLE_THRESHOLD",
		flagKey:      "idle-threshold",
		defaultValue: 2 * time.Minute,
	}
	roomIdLength = configVar[int]{
		envKey:       "ROOM_ID_LENGTH",
		flagKey:      "room-id-length",
		defaultValue: 12,
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(metadataURL.flagKey, metadataURL.defaultValue, "Storage API base url, empty to use the in-memory catalog")
	pflag.Duration(metadataTimeout.flagKey, metadataTimeout.defaultValue, "Timeout of a single metadata call")
	pflag.String(catalogFile.flagKey, catalogFile.defaultValue, "YAML file seeding the in-memory catalog")
	pflag.Duration(metadataCacheTTL.flagKey, metadataCacheTTL.defaultValue, "Metadata cache ttl, 0 disables the redis cache")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(emptyRoomInterval.flagKey, emptyRoomInterval.defaultValue, "Interval of the empty room sweep")
	pflag.Duration(idleSweepInterval.flagKey, idleSweepInterval.defaultValue, "Interval of the idle participant sweep")
	pflag.Duration(idleThreshold.flagKey, idleThreshold.defaultValue, "Time without activity after which a participant is removed")
	pflag.Int(roomIdLength.flagKey, roomIdLength.defaultValue, "Length of generated room ids")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(port)
	bind(host)
	bind(logLevel)
	bind(metadataURL)
	bind(metadataTimeout)
	bind(catalogFile)
	bind(metadataCacheTTL)
	bind(redisPort)
	bind(redisHost)
	bind(redisPassword)
	bind(emptyRoomInterval)
	bind(idleSweepInterval)
	bind(idleThreshold)
	bind(roomIdLength)

	config := &app.AppConfig{
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		MetadataURL:       viper.GetString(metadataURL.flagKey),
		MetadataTimeout:   viper.GetDuration(metadataTimeout.flagKey),
		CatalogFile:       viper.GetString(catalogFile.flagKey),
		MetadataCacheTTL:  viper.GetDuration(metadataCacheTTL.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
		EmptyRoomInterval: viper.GetDuration(emptyRoomInterval.flagKey),
		IdleSweepInterval: viper.GetDuration(idleSweepInterval.flagKey),
		IdleThreshold:     viper.GetDuration(idleThreshold.flagKey),
		RoomIdLength:      viper.GetInt(roomIdLength.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
