package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host        string `json:"host"`        // The domain name of the server.
	ServerAddr  string `json:"serverAddr"`  // The address the server endpoint binds to.
	MetricsAddr string `json:"metricsAddr"` // The address the metric endpoint binds to.

	Auth struct {
		AccessTokenSecret      string `json:"accessTokenSecret"`
		RefreshTokenSecret     string `json:"refreshTokenSecret"`
		AccessTokenExpiryHour  int    `json:"accessTokenExpiryHour"`
		RefreshTokenExpiryHour int    `json:"refreshTokenExpiryHour"`
	} `json:"auth"`

	// DB Settings
	Postgres struct {
		Host     string `json:"host"`
		Port     string `json:"port"`
		DBName   string `json:"dbname"`
		User     string `json:"user"`
		Password string `json:"password"`
		SSLMode  string `json:"sslmode"`
		TimeZone string `json:"TimeZone"`
	} `json:"postgres"`

	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		From     string `json:"from"` // Sender address shown on workflow mail.
	} `json:"smtp"`

	// Optional LDAP bind auth, used when a login request asks for it.
	LDAP struct {
		Enable   bool   `json:"enable"`
		Address  string `json:"address"`
		UserName string `json:"userName"`
		Password string `json:"password"`
		SearchDN string `json:"searchDN"`
	} `json:"ldap"`

	// Reminder mail for requests stuck in a waiting state. The cron only
	// re-sends mail, it never mutates workflow state.
	Reminder struct {
		Enable    bool   `json:"enable"`
		Spec      string `json:"spec"`      // cron spec, e.g. "0 9 * * *"
		StaleDays int    `json:"staleDays"` // resend after this many days waiting
	} `json:"reminder"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode it reads
// debug-config.yaml (path overridable via TRAINFLOW_DEBUG_CONFIG_PATH),
// otherwise the config.yaml mounted at /etc/config.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("TRAINFLOW_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("TRAINFLOW_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	klog.Info("config path: ", configPath)

	err := readConfig(configPath, config)
	if err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return err
	}
	return nil
}
