package config

import (
	"reflect"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "LINE_TOLERANCE", "ENABLE_LOCAL_AUTH", "NOISE_RULES_FILE", "CORS_ORIGINS_OFFLINE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.LineTolerance != 5 {
		t.Errorf("LineTolerance = %v", c.LineTolerance)
	}
	if !c.EnableLocalAuth {
		t.Error("local auth should default on in offline mode")
	}
	if got := c.CORSOrigins(); !reflect.DeepEqual(got, []string{"http://localhost:3000", "http://localhost:3010"}) {
		t.Errorf("CORSOrigins = %v", got)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("LINE_TOLERANCE", "7.5")
	t.Setenv("ENABLE_LOCAL_AUTH", "")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("NOISE_RULES_FILE", "/etc/noise.yaml")
	c := FromEnv()
	if c.LineTolerance != 7.5 || c.NoiseRulesFile != "/etc/noise.yaml" {
		t.Errorf("overrides not applied: %+v", c)
	}
	if c.EnableLocalAuth {
		t.Error("local auth should default off online")
	}
	if got := c.CORSOrigins(); !reflect.DeepEqual(got, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("CORSOrigins = %v", got)
	}
}

func TestEnvFloatRejectsNonPositive(t *testing.T) {
	t.Setenv("LINE_TOLERANCE", "-1")
	if got := envFloat("LINE_TOLERANCE", 5); got != 5 {
		t.Errorf("envFloat = %v", got)
	}
	t.Setenv("LINE_TOLERANCE", "abc")
	if got := envFloat("LINE_TOLERANCE", 5); got != 5 {
		t.Errorf("envFloat = %v", got)
	}
}
