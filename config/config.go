package config

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket   string        `yaml:"minio_bucket"`
	PublicBaseUrl string        `yaml:"public_base_url"`
	App           App           `yaml:"app"`
	DB            *sql.DB       `yaml:"db"`
	Queue         *RabbitMQ     `yaml:"rabbitmq"`
	Storage       *minio.Client `yaml:"storage"`
	Server        Server        `yaml:"server"`
	Upload        Upload        `yaml:"upload"`
	Transcode     Transcode     `yaml:"transcode"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
	MaxTries uint   `yaml:"max_tries"`
}

type Upload struct {
	Dir        string `yaml:"dir"`
	ScratchDir string `yaml:"scratch_dir"`
}

// Transcode holds the fixed single-rendition output profile.
type Transcode struct {
	TargetHeight       int    `yaml:"target_height"`
	IntermediateHeight int    `yaml:"intermediate_height"`
	VideoBitrate       string `yaml:"video_bitrate"`
	AudioBitrate       string `yaml:"audio_bitrate"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.workers", 1)
	viper.SetDefault("server.max_tries", 5)
	viper.SetDefault("upload.dir", "temp/uploads")
	viper.SetDefault("upload.scratch_dir", "scratch")
	viper.SetDefault("transcode.target_height", 720)
	viper.SetDefault("transcode.intermediate_height", 1080)
	viper.SetDefault("transcode.video_bitrate", "3000k")
	viper.SetDefault("transcode.audio_bitrate", "128k")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: viper.GetString("rabbitmq_host"),
		Port: viper.GetInt("rabbitmq_port"),
		User: viper.GetString("rabbitmq_user"),
		Pass: viper.GetString("rabbitmq_pass"),
		Kind: viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket:   viper.GetString("minio.bucket"),
		PublicBaseUrl: viper.GetString("public_base_url"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
			MaxTries: viper.GetUint("server.max_tries"),
		},
		Upload: Upload{
			Dir:        viper.GetString("upload.dir"),
			ScratchDir: viper.GetString("upload.scratch_dir"),
		},
		Transcode: Transcode{
			TargetHeight:       viper.GetInt("transcode.target_height"),
			IntermediateHeight: viper.GetInt("transcode.intermediate_height"),
			VideoBitrate:       viper.GetString("transcode.video_bitrate"),
			AudioBitrate:       viper.GetString("transcode.audio_bitrate"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
