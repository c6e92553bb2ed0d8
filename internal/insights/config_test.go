package insights

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	cfg, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("embedded thresholds %+v differ from defaults %+v", cfg, DefaultConfig())
	}
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    Config
		wantErr bool
	}{
		{
			name: "partial override keeps defaults",
			yaml: "overspend_high_pct: 50\n",
			want: Config{OverspendMediumPct: 15, OverspendHighPct: 50, CommitmentRatio: 0.70},
		},
		{
			name:    "medium above high",
			yaml:    "overspend_medium_pct: 60\n",
			wantErr: true,
		},
		{
			name:    "negative",
			yaml:    "overspend_medium_pct: -1\n",
			wantErr: true,
		},
		{
			name:    "zero ratio",
			yaml:    "commitment_ratio: 0\n",
			wantErr: true,
		},
		{
			name:    "bad yaml",
			yaml:    "overspend_high_pct: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte("commitment_ratio: 0.5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.CommitmentRatio != 0.5 {
		t.Errorf("CommitmentRatio = %v, want 0.5", cfg.CommitmentRatio)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile() expected error for missing file")
	}
}
