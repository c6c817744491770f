package config

import "time"

const defaultPort = 8080

const defaultGeoKey = "couriers:live"

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "test_db",
}

var defaultKafka = Kafka{
	Group:        "service-dispatch",
	Topics:       []string{"orders", "couriers"},
	EventTimeout: 30 * time.Second,
}

var defaultDispatch = Dispatch{
	Strategy:         "broadcast",
	MaxBroadcast:     0,
	SweepInterval:    10 * time.Second,
	SweepBatch:       100,
	OfferTimeout:     2 * time.Minute,
	OperationTimeout: 3 * time.Second,
	SweepTimeout:     20 * time.Second,
}

var defaultNotify = Notify{
	Sink:        SinkLog,
	Workers:     4,
	QueueSize:   1024,
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       10,
	Burst:      20,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

var defaultPprof = PprofConfig{
	Addr: "127.0.0.1:6060",
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultKafka returns the default consumer settings.
func DefaultKafka() Kafka {
	k := defaultKafka
	k.Topics = append([]string(nil), defaultKafka.Topics...)
	return k
}

// DefaultDispatch returns the default dispatch settings.
func DefaultDispatch() Dispatch {
	return defaultDispatch
}

// DefaultNotify returns the default notification settings.
func DefaultNotify() Notify {
	return defaultNotify
}

// DefaultRateLimit returns the default rate limit settings.
func DefaultRateLimit() RateLimit {
	return defaultRateLimit
}

// DefaultPprof returns the default pprof settings.
func DefaultPprof() PprofConfig {
	return defaultPprof
}
