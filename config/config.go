package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"iris-api"`
	AppVersion                    string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	BodyLimit                     string   `env:"HTTP_SERVER_BODY_LIMIT" env-default:"2M"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`
	MetricsPath                   string   `env:"METRICS_PATH" env-default:"/metrics"`

	// Tracing exporter: none, console or otlp
	TraceExporter string            `env:"TRACE_EXPORTER" env-default:"none"`
	OTLPEndpoint  string            `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol  string            `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure  bool              `env:"OTLP_INSECURE" env-default:"true"`
	OTLPHeaders   map[string]string `env:"OTLP_HEADERS"`
	OTLPTimeout   time.Duration     `env:"OTLP_TIMEOUT" env-default:"10s"`

	// Verification policy
	VerificationConfigFile string `env:"VERIFICATION_CONFIG_FILE" env-default:""`
	DateOrder              string `env:"DATE_ORDER" env-default:"day_first"`
	BatchConcurrency       int    `env:"BATCH_CONCURRENCY" env-default:"4"`

	// Kafka Consumer
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"verification-requests"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"iris-consumer"`
	KafkaOutputTopic     string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"verification-results"`
	KafkaErrorTopic      string   `env:"KAFKA_ERROR_TOPIC" env-default:"verification-errors"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"false"`

	// Kafka Producer
	KafkaBatchSize    int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Processor
	ProcessorTimeoutSeconds int `env:"PROCESSOR_TIMEOUT_SECONDS" env-default:"30"`

	// JMESPath expressions locating request values inside stream messages
	StreamRawTextPath       string `env:"STREAM_RAW_TEXT_PATH" env-default:"raw_text"`
	StreamDocumentTypePath  string `env:"STREAM_DOCUMENT_TYPE_PATH" env-default:"document_type"`
	StreamUserRecordPath    string `env:"STREAM_USER_RECORD_PATH" env-default:"user_record"`
	StreamReferenceDatePath string `env:"STREAM_REFERENCE_DATE_PATH" env-default:"reference_date"`
	StreamRequestIDPath     string `env:"STREAM_REQUEST_ID_PATH" env-default:"request_id"`
}

// Load reads an optional .env file from envFiles (default ".env") and then
// populates Config from the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return cfg, nil
}
