package config

import (
	"log"
	"time"

	"clinicbot/models"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Conversation engine.
	SessionBackend      string        `mapstructure:"SESSION_BACKEND"` // "memory" or "redis"
	SessionIdleTimeout  time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	CollaboratorTimeout time.Duration `mapstructure:"COLLABORATOR_TIMEOUT"`

	// Google Gemini and Speech.
	GeminiAPIKey             string   `mapstructure:"GEMINI_API_KEY"`
	GeminiModel              string   `mapstructure:"GEMINI_MODEL"`
	GoogleServiceAccountFile string   `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	SpeechLanguage           string   `mapstructure:"SPEECH_LANGUAGE"`
	SpeechAltLanguages       []string `mapstructure:"SPEECH_ALT_LANGUAGES"`

	// WhatsApp Cloud API.
	WhatsAppToken         string `mapstructure:"WHATSAPP_TOKEN"`
	WhatsAppPhoneNumberID string `mapstructure:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppVerifyToken   string `mapstructure:"WHATSAPP_VERIFY_TOKEN"`
	WhatsAppAppSecret     string `mapstructure:"WHATSAPP_APP_SECRET"`
	WhatsAppAPIVersion    string `mapstructure:"WHATSAPP_API_VERSION"`
	StaffPhone            string `mapstructure:"STAFF_PHONE"`

	// Cloudinary hosts the offer and doctor images.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	// Clinic static content.
	ClinicName        string            `mapstructure:"CLINIC_NAME"`
	ClinicLocationURL string            `mapstructure:"CLINIC_LOCATION_URL"`
	ClinicClosedDay   string            `mapstructure:"CLINIC_CLOSED_DAY"`
	OfferImages       []string          `mapstructure:"OFFER_IMAGES"`
	DoctorImages      []string          `mapstructure:"DOCTOR_IMAGES"`
	BookingSlots      []models.Slot     `mapstructure:"BOOKING_SLOTS"`
	BookingShortcuts  []models.Shortcut `mapstructure:"BOOKING_SHORTCUTS"`
	Services          []models.Service  `mapstructure:"SERVICES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 600)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "clinicbot")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("SESSION_BACKEND", "memory")
	viper.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	viper.SetDefault("COLLABORATOR_TIMEOUT", "10s")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	viper.SetDefault("SPEECH_LANGUAGE", "ar-IQ")
	viper.SetDefault("SPEECH_ALT_LANGUAGES", []string{"en-US"})
	viper.SetDefault("WHATSAPP_TOKEN", "")
	viper.SetDefault("WHATSAPP_PHONE_NUMBER_ID", "")
	viper.SetDefault("WHATSAPP_VERIFY_TOKEN", "")
	viper.SetDefault("WHATSAPP_APP_SECRET", "")
	viper.SetDefault("WHATSAPP_API_VERSION", "v19.0")
	viper.SetDefault("STAFF_PHONE", "")
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("CLINIC_NAME", "")
	viper.SetDefault("CLINIC_LOCATION_URL", "")
	viper.SetDefault("CLINIC_CLOSED_DAY", "friday")
	viper.SetDefault("OFFER_IMAGES", []string{})
	viper.SetDefault("DOCTOR_IMAGES", []string{})

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UseRedisSessions reports whether conversation sessions live in Redis instead of process memory.
func UseRedisSessions() bool {
	return AppConfig.SessionBackend == "redis"
}
