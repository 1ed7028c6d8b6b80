package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	Port               string
	DBDriver           string // mysql 或 memory
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	JWTSecret          string
	JWTExpiresIn       time.Duration
	LogLevel           string
	FrontendURL        string
	BackendURL         string
	StorageDriver      string // local、s3 或 gcs
	LocalStoragePath   string
	S3Region           string
	S3Bucket           string
	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string
	PresenceBackend    string // local 或 redis
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	Debug              bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	AppConfig = Load()

	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("错误：%v", err)
	}

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。存储：%s，实时推送：%s", AppConfig.DBDriver, AppConfig.PresenceBackend)
}

// Load 从环境变量中读取配置
func Load() Config {
	return Config{
		Port:               getEnv("PORT", "5000"),
		DBDriver:           getEnv("DB_DRIVER", "mysql"),
		DBHost:             getEnv("DB_HOST", ""),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiresIn:       getEnvAsDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:5000"),
		StorageDriver:      getEnv("STORAGE_DRIVER", "local"),
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		S3Region:           getEnv("S3_REGION", "us-west-2"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		GCSProjectID:       getEnv("GCS_PROJECT_ID", ""),
		GCSBucketName:      getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		PresenceBackend:    getEnv("PRESENCE_BACKEND", "local"),
		RedisHost:          getEnv("REDIS_HOST", "localhost"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		Debug:              getEnvAsBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

// getEnvAsDuration 支持 "168h" 这样的写法，也支持 "7d" 这样的天数写法
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	if n := len(valStr); n > 1 && valStr[n-1] == 'd' {
		if days, err := strconv.Atoi(valStr[:n-1]); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(valStr); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

// Validate 检查必要的配置项
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT密钥未设置")
	}
	switch c.DBDriver {
	case "mysql":
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("数据库配置不完整")
		}
	case "memory":
	default:
		return errors.New("不支持的数据库驱动: " + c.DBDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3 存储桶未设置")
		}
	case "gcs":
		if c.GCSBucketName == "" {
			return errors.New("GCS 存储桶未设置")
		}
	default:
		return errors.New("不支持的存储驱动: " + c.StorageDriver)
	}
	if c.PresenceBackend != "local" && c.PresenceBackend != "redis" {
		return errors.New("不支持的实时推送后端: " + c.PresenceBackend)
	}
	return nil
}
