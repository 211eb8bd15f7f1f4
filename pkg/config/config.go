package config

import (
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	// DB
	PGDSN string `envconfig:"PG_DSN" required:"true"`

	// JWT
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"60"`

	// HTTP
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// RabbitMQ
	RabbitURL      string `envconfig:"RABBIT_URL" required:"true"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"court.events"`
	PaymentQueue   string `envconfig:"PAYMENT_QUEUE" default:"court.payment.q"`

	// Payment holds
	HoldMinutes          int `envconfig:"HOLD_MINUTES" default:"15"`
	HoldSweepIntervalSec int `envconfig:"HOLD_SWEEP_INTERVAL_SEC" default:"60"`

	// Checkout
	LateFeePercent int `envconfig:"LATE_FEE_PERCENT" default:"150"`

	// Omise
	OmisePublicKey string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey string `envconfig:"OMISE_SECRET_KEY"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
