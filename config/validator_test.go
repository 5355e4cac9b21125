package config

import "testing"

func TestValidateEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected bool
	}{
		{"development", "development", true},
		{"staging", "staging", true},
		{"production", "production", true},
		{"invalid", "qa", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.App.Environment = tt.env
			err := cfg.Validate()
			if tt.expected && err != nil {
				t.Errorf("expected %q to be valid, got error: %v", tt.env, err)
			}
			if !tt.expected && err == nil {
				t.Errorf("expected %q to be invalid, got no error", tt.env)
			}
		})
	}
}

func TestValidateWithDetails_ReportsFieldNamespace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App.Name = ""
	cfg.Server.Port = 99999

	err := ValidateWithDetails(cfg)
	if err == nil {
		t.Fatal("expected validation error details")
	}
	details, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(details) == 0 {
		t.Fatal("expected non-empty validation details")
	}
}
