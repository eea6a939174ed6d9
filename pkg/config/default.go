package config

import "time"

type LightupService struct {
	BaseURL        string `koanf:"base_url" validate:"required,url"`
	RefreshToken   string `koanf:"refresh_token"`
	CredentialFile string `koanf:"credential_file"`
}

type CollibraService struct {
	RestURL  string `koanf:"rest_url" validate:"required,url"`
	Username string `koanf:"username" validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

type HttpClient struct {
	Timeout  time.Duration `koanf:"timeout"`
	RetryMax int           `koanf:"retry_max" validate:"gte=0"`
}

type Prometheus struct {
	PushAddress string `koanf:"push_address"`
}

type Jaeger struct {
	AgentHost   string `koanf:"agent_host"`
	ServiceName string `koanf:"service_name"`
}

// Tools is the configuration shared by every lightupctl command. Each command
// validates only the sections it talks to.
type Tools struct {
	Lightup    LightupService  `koanf:"lightup"`
	Collibra   CollibraService `koanf:"collibra"`
	Http       HttpClient      `koanf:"http"`
	Prometheus Prometheus      `koanf:"prometheus"`
	Jaeger     Jaeger          `koanf:"jaeger"`
}

func Default() Tools {
	return Tools{
		Http: HttpClient{
			Timeout:  time.Minute,
			RetryMax: 0,
		},
		Jaeger: Jaeger{
			ServiceName: "lightupctl",
		},
	}
}
