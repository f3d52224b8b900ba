package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

type Config struct {
	MetadataDB MySQL      `json:"metadata_db"`
	Completion Completion `json:"completion"`
	Vendor     Vendor     `json:"vendor"`
	Kafka      Kafka      `json:"kafka"`
}

type MySQL struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
}

func (mysql *MySQL) ToDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", mysql.Username, mysql.Password, mysql.Host, mysql.Port, mysql.Database)
}

// Completion points at an OpenAI-compatible chat completions API.
type Completion struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     uint64 `json:"max_retries"`
}

// Vendor configures the simulated delivery vendor.
type Vendor struct {
	SuccessRate float64 `json:"success_rate"`
}

// Kafka is optional; empty brokers disable event publishing and the
// receipt consumer job.
type Kafka struct {
	Brokers       []string `json:"brokers"`
	DispatchTopic string   `json:"dispatch_topic"`
	ReceiptTopic  string   `json:"receipt_topic"`
	ConsumerGroup string   `json:"consumer_group"`
}

func NewConfig() *Config {
	return &Config{
		MetadataDB: MySQL{
			Username: "",
			Password: "",
			Host:     "127.0.0.1",
			Port:     3306,
			Database: "crm_db",
		},
		Completion: Completion{
			BaseURL:        "https://api.groq.com/openai/v1",
			APIKey:         "",
			Model:          "llama3-8b-8192",
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
		Vendor: Vendor{
			SuccessRate: DefaultVendorSuccessRate,
		},
		Kafka: Kafka{
			Brokers:       []string{},
			DispatchTopic: "crm_campaign_dispatched",
			ReceiptTopic:  "crm_delivery_receipt",
			ConsumerGroup: "crm_receipts",
		},
	}
}

func (c *Config) Load(ctx context.Context, path string) error {
	if path == "" {
		log.Ctx(ctx).Warn().Msgf("empty config file")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Msgf("config file does not exist, file path: %s", path)
			return nil
		}
		return err
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Ctx(ctx).Error().Msgf("config file close failed, file path: %s", path)
		}
	}(f)

	p := json.NewDecoder(f)
	if err := p.Decode(&c); err != nil {
		return err
	}

	return nil
}
