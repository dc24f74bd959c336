package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikeydub/go-gallery-layout/service/logger"
	"github.com/spf13/viper"
)

// InDocker returns true if the service is running as a container.
func InDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

// ResolveEnvFile finds the appropriate env file to use for the service.
func ResolveEnvFile(service string, env string) string {
	format := "app-%s-%s.yaml"
	if InDocker() {
		return fmt.Sprintf(format, "docker", service)
	}

	switch env {
	case "local", "dev", "prod":
		return fmt.Sprintf(format, env, service)
	}

	return fmt.Sprintf(format, "local", service)
}

// LoadEnvFile configures the environment with the configured input file. Missing files are skipped so
// that commands can run from environment variables alone.
func LoadEnvFile(fileName string) {
	if viper.GetString("ENV") != "local" {
		logger.For(nil).Info("running in non-local environment, skipping environment configuration")
		return
	}

	// Commands can run from directories deeper in the source tree, so we need to search parent directories to find this config file
	path, err := FindFile(filepath.Join("_local", fileName), 5)
	if err != nil {
		logger.For(nil).Debugf("no local config found for %s, using environment only", fileName)
		return
	}

	logger.For(nil).Infof("configuring environment with settings from %s", path)
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("error reading viper config: %s\nmake sure your _local directory is decrypted and up-to-date", err))
	}
}
