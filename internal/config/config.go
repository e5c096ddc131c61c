package config

import (
	"os"
)

type Config struct {
	AppPort string
	AppEnv  string

	SessionSecret string
	MongoURL      string

	LoginURL        string
	UsersCollection string
}

func Load() Config {

	cfg := Config{

		AppPort: os.Getenv("APP_PORT"),
		AppEnv:  os.Getenv("APP_ENV"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		MongoURL:      os.Getenv("MONGO_URL"),

		LoginURL:        os.Getenv("LOGIN_URL"),
		UsersCollection: os.Getenv("USERS_COLLECTION"),
	}

	return cfg

}

// Production reports whether this deployment shares the production
// logical database with the other services.
func (c Config) Production() bool {
	return c.AppEnv == "production"
}
