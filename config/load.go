package config

import (
	// Go Internal Packages
	"os"
	"strings"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
)

const envPrefix = "CARDPIPE_"

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag. Commands register their own flags
// on the default kingpin application before calling it.
func LoadConfig() (*koanf.Koanf, Config, error) {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("config.yml").String()

	kingpin.Parse()
	return Load(*configPath)
}

// Load layers the embedded defaults, the YAML file at path (skipped when missing) and
// CARDPIPE_ prefixed environment variables, then applies secrets.
func Load(path string) (*koanf.Koanf, Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, Config{}, err
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, Config{}, err
			}
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, Config{}, err
	}

	appKonf := Config{}
	if err := k.Unmarshal("", &appKonf); err != nil {
		return nil, Config{}, err
	}
	return k, LoadSecrets(appKonf), nil
}

// CARDPIPE_SINK__BUFFER_SIZE -> sink.buffer_size
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// LoadSecrets Loads the secret variables and overrides the config
func LoadSecrets(k Config) Config {
	_ = godotenv.Load()

	if mongoURI := os.Getenv("MONGO_URI"); mongoURI != "" {
		k.Mongo.URI = mongoURI
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		k.Redis.Password = redisPassword
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		k.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if isProdMode := os.Getenv("IS_PROD_MODE"); isProdMode != "" {
		k.IsProdMode = isProdMode == "true"
	}
	return k
}
