package kafka

import (
	"crypto/tls"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Config holds Kafka connection parameters.
type Config struct {
	ConsumerGroup string

	// SASL configuration for authentication.
	SASLMechanism string // "PLAIN" or "SCRAM-SHA-256" or "SCRAM-SHA-512"
	SASLUsername  string
	SASLPassword  string

	Brokers []string

	// TLS enables TLS for Kafka connections.
	TLS         bool
	SASLEnabled bool

	// MaxAttempts is how many times a consumer hands one message to its
	// handler before giving up on it. Zero means a single attempt.
	MaxAttempts int
	// RetryBackoff is the base delay between attempts; attempt n waits n times
	// this long.
	RetryBackoff time.Duration
}

func (c Config) secured() bool { return c.TLS || c.SASLEnabled }

func (c Config) tlsConfig() *tls.Config {
	if !c.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// dialer builds a reader dialer honouring TLS and SASL settings.
func (c Config) dialer() *kafkago.Dialer {
	d := &kafkago.Dialer{Timeout: 10 * time.Second, DualStack: true}
	d.TLS = c.tlsConfig()
	if c.SASLEnabled {
		d.SASLMechanism = resolveSASL(c)
	}
	return d
}

// transport builds a writer transport honouring TLS and SASL settings.
func (c Config) transport() *kafkago.Transport {
	t := &kafkago.Transport{TLS: c.tlsConfig()}
	if c.SASLEnabled {
		t.SASL = resolveSASL(c)
	}
	return t
}

// resolveSASL returns the SASL mechanism named in the config, or nil when the
// mechanism is unknown or cannot be built.
func resolveSASL(cfg Config) sasl.Mechanism {
	switch cfg.SASLMechanism {
	case "SCRAM-SHA-256":
		m, err := scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
		if err != nil {
			return nil
		}
		return m
	case "SCRAM-SHA-512":
		m, err := scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
		if err != nil {
			return nil
		}
		return m
	case "PLAIN", "":
		return &plain.Mechanism{
			Username: cfg.SASLUsername,
			Password: cfg.SASLPassword,
		}
	default:
		return nil
	}
}
