package config

import "testing"

func TestResolveDefaults(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		driver  string
		wantErr bool
	}{
		{name: "cloud without storage", cfg: Config{BuildTarget: "cloud"}, driver: DriverNone},
		{name: "dsn selects postgres", cfg: Config{BuildTarget: "cloud-dev", PostgresDSN: "postgres://x"}, driver: DriverPostgres},
		{name: "spanner database selects spanner", cfg: Config{BuildTarget: "cloud", SpannerDatabase: "projects/p/instances/i/databases/d"}, driver: DriverSpanner},
		{name: "local defaults to sqlite", cfg: Config{BuildTarget: "local", DBDriver: "auto"}, driver: DriverSQLite},
		{name: "explicit override", cfg: Config{BuildTarget: "local", DBDriver: DriverPostgres}, driver: DriverPostgres},
		{name: "bad target", cfg: Config{BuildTarget: "mars"}, wantErr: true},
		{name: "bad driver", cfg: Config{BuildTarget: "local", DBDriver: "mysql"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			err := cfg.ResolveDefaults()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if cfg.DBDriver != tc.driver {
				t.Fatalf("driver: got %s want %s", cfg.DBDriver, tc.driver)
			}
		})
	}
}

func TestResolveDefaultsSQLitePath(t *testing.T) {
	cfg := Config{BuildTarget: "local"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.SQLitePath == "" {
		t.Fatalf("sqlite path not derived")
	}
}
