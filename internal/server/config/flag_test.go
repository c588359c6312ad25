package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags_OverridesDefaults(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"test",
		"-a", ":9090",
		"-d", "postgres://other/db",
		"-s", "flagsecret",
		"-t", "5",
		"-n", "returning-officer",
		"-b", "exports",
	}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":9090", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://other/db", c.DatabaseDSN)
	assert.Equal(t, "flagsecret", c.SecretKey)
	assert.Equal(t, 5*time.Minute, c.AdminTokenValidityDuration)
	assert.Equal(t, "returning-officer", c.AdminName)
	assert.Equal(t, "exports", c.S3Bucket)
	// untouched flags keep their defaults
	assert.Equal(t, "us-east-1", c.S3Region)
}

func TestParseFlags_IgnoresForeignFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"test", "-unknown", "junk", "-a", ":7070"}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":7070", c.EndpointAddrHTTP)
}
