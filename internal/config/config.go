package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	LogLvl  string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"1h"`
	CookieSecret string        `env:"COOKIE_SECRET,required"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	FrontendURL  string        `env:"FRONTEND_APP_URL" envDefault:"http://localhost:3000"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`
	GoogleScope        string `env:"GOOGLE_SCOPE" envDefault:"openid,email,profile"`
	KakaoClientID      string `env:"KAKAO_CLIENT_ID"`
	KakaoClientSecret  string `env:"KAKAO_CLIENT_SECRET"`
	KakaoCallbackURL   string `env:"KAKAO_CALLBACK_URL"`
	KakaoScope         string `env:"KAKAO_SCOPE" envDefault:"account_email,profile_nickname"`

	BicycleAPIURL string `env:"BICYCLE_API_URL"`

	DonationPointPerUnit float64 `env:"DONATION_POINT_PER_UNIT" envDefault:"100"`
	WeightTop            float64 `env:"W_TOP" envDefault:"1"`
	WeightBottom         float64 `env:"W_BOTTOM" envDefault:"1"`
	WeightOuter          float64 `env:"W_OUTER" envDefault:"3"`
	WeightShoes          float64 `env:"W_SHOES" envDefault:"2"`
	WeightBag            float64 `env:"W_BAG" envDefault:"1"`
	WeightEtc            float64 `env:"W_ETC" envDefault:"1"`
	OTPTTLSec            int     `env:"OTP_TTL_SEC" envDefault:"300"`
	OTPRatePerMin        float64 `env:"OTP_RATE_PER_MIN" envDefault:"5"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	StorageBucket string `env:"STORAGE_BUCKET"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Scopes splits a comma separated scope list.
func Scopes(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
