package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/embed/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	deferLoading = configVar[bool]{
		envKey:       "SERVER_DEFER_LOADING",
		flagKey:      "defer-loading",
		defaultValue: false,
		usage:        "Insert the player script only on demand",
	}
	autoLoad = configVar[bool]{
		envKey:       "SERVER_AUTO_LOAD",
		flagKey:      "auto-load",
		defaultValue: false,
		usage:        "With deferred loading, insert the script on the first player",
	}
	fetchMetadata = configVar[bool]{
		envKey:       "SERVER_FETCH_METADATA",
		flagKey:      "fetch-metadata",
		defaultValue: true,
		usage:        "Look up video title and author for player statuses",
	}
	statusExp = configVar[time.Duration]{
		envKey:       "SERVER_STATUS_EXP",
		flagKey:      "status-exp",
		defaultValue: 24 * time.Hour,
		usage:        "Expiration of stored player statuses",
	}
	callTimeout = configVar[time.Duration]{
		envKey:       "SERVER_CALL_TIMEOUT",
		flagKey:      "call-timeout",
		defaultValue: 5 * time.Second,
		usage:        "Timeout of player getters answered by the page",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
)

func bind[T any](v configVar[T], define func(name string, value T, usage string) *T) {
	define(v.flagKey, v.defaultValue, v.usage)
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	bind(port, pflag.Int)
	bind(host, pflag.String)
	bind(logLevel, pflag.String)
	bind(deferLoading, pflag.Bool)
	bind(autoLoad, pflag.Bool)
	bind(fetchMetadata, pflag.Bool)
	bind(statusExp, pflag.Duration)
	bind(callTimeout, pflag.Duration)
	bind(redisPort, pflag.Int)
	bind(redisHost, pflag.String)
	bind(redisPassword, pflag.String)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	config := &app.AppConfig{
		Host:          viper.GetString(host.flagKey),
		Port:          viper.GetInt(port.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		DeferLoading:  viper.GetBool(deferLoading.flagKey),
		AutoLoad:      viper.GetBool(autoLoad.flagKey),
		FetchMetadata: viper.GetBool(fetchMetadata.flagKey),
		StatusExp:     viper.GetDuration(statusExp.flagKey),
		CallTimeout:   viper.GetDuration(callTimeout.flagKey),
		RedisPort:     viper.GetInt(redisPort.flagKey),
		RedisHost:     viper.GetString(redisHost.flagKey),
		RedisPassword: viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
