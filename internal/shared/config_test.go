package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"property_submission/internal/domain"
	"property_submission/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUBMIT_ROLE", "")
	t.Setenv("AUTOSAVE_IDLE_MS", "")
	t.Setenv("CORS_ORIGINS", "")

	c := shared.Load(filepath.Join(t.TempDir(), "missing.env"))
	if c.HTTPAddr != ":8080" || c.SubmitRole != domain.RoleUser || c.AutosaveIdle != 3*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.CORSOrigins) != 0 {
		t.Fatalf("origins: %v", c.CORSOrigins)
	}
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	if err := os.WriteFile(file, []byte("SUBMIT_WORKERS=9\nCORS_ORIGINS=http://a.test, http://b.test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUBMIT_ROLE", "agent")
	t.Setenv("AUTOSAVE_IDLE_MS", "250")
	// godotenv never overrides variables that are already set
	t.Setenv("SUBMIT_WORKERS", "")
	os.Unsetenv("SUBMIT_WORKERS")
	os.Unsetenv("CORS_ORIGINS")
	t.Cleanup(func() { os.Unsetenv("SUBMIT_WORKERS"); os.Unsetenv("CORS_ORIGINS") })

	c := shared.Load(file)
	if c.Workers != 9 {
		t.Fatalf("workers from .env: %d", c.Workers)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("origins: %v", c.CORSOrigins)
	}
	if c.SubmitRole != domain.RoleAgent || c.AutosaveIdle != 250*time.Millisecond {
		t.Fatalf("overrides: role=%s idle=%s", c.SubmitRole, c.AutosaveIdle)
	}
}
