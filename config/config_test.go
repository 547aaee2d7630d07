package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDSN(t *testing.T) {
	c := &Config{
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresUser:     "u",
		PostgresPassword: "p",
		PostgresDB:       "cotton",
		PostgresSSLMode:  "disable",
	}

	want := "host=db port=5433 user=u password=p dbname=cotton sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}

func TestLoadSourcesMissingFileFallsBack(t *testing.T) {
	sources, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadSources on missing file: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 default sources, got %d", len(sources))
	}
	for _, s := range sources {
		if !s.Enabled {
			t.Errorf("default source %q should be enabled", s.Name)
		}
	}
}

func TestLoadSourcesParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	data := `sources:
  - name: cottonchina
    url: http://www.cottonchina.org.cn/
    kind: prices
    unit: yuan/ton
    enabled: true
  - name: cncotton
    url: https://www.cncotton.com/
    kind: news
    enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Unit != "yuan/ton" {
		t.Errorf("unit: got %q, want yuan/ton", sources[0].Unit)
	}
	if sources[1].Enabled {
		t.Error("cncotton should be disabled")
	}
}

func TestLoadSourcesRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte("sources: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSources(path); err == nil {
		t.Error("expected error for empty source list")
	}
}
