package metrics

import (
	"github.com/grafana/pyroscope-go"
)

type PProfConfig struct {
	Enabled       bool              `yaml:"enabled"`
	AppInstanceID string            `yaml:"app_instance_id"`
	AppName       string            `yaml:"app_name"`
	ServerAddr    string            `yaml:"server_addr"`
	AuthToken     string            `yaml:"auth_token"`
	Tags          map[string]string `yaml:"tags"`
}

func InitPProf(cfg *PProfConfig) (*pyroscope.Profiler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	pTags := map[string]string{
		"env":      "dev",
		"instance": cfg.AppInstanceID,
	}
	for k, v := range cfg.Tags {
		pTags[k] = v
	}

	return pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.AppName,
		ServerAddress:   cfg.ServerAddr,
		AuthToken:       cfg.AuthToken,
		Logger:          pyroscope.StandardLogger,
		Tags:            pTags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,

			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,

			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})
}
