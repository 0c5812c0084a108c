package common

import "testing"

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("describe"); err != nil {
		t.Errorf("ValidateNotEmpty() error = %v, want nil", err)
	}
	if err := ValidateNotEmpty("  \n"); err == nil {
		t.Error("ValidateNotEmpty() error = nil, want error for blank value")
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"absolute", "/data/x.csv", false},
		{"relative", "data/x.csv", false},
		{"with spaces", "/data/my file.csv", false},
		{"invalid - empty", "", true},
		{"invalid - blank", "   ", true},
		{"invalid - NUL", "/data/x\x00.csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateArgument(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"simple action", "describe", false},
		{"with underscore", "drop_na", false},
		{"starts with digit", "2d_histogram", false},
		{"with space", "drop na", false},
		{"dotted model type", "eva02.base", false},
		{"invalid - empty", "", true},
		{"invalid - blank", "   ", true},
		{"invalid - leading dash", "--file", true},
		{"invalid - NUL byte", "describe\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgument("action", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArgument() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClassList(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		wantErr bool
	}{
		{"valid", []string{"cat", "dog"}, false},
		{"single", []string{"defect"}, false},
		{"invalid - empty list", nil, true},
		{"invalid - blank entry", []string{"cat", " "}, true},
		{"invalid - comma", []string{"cat,dog"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClassList(tt.classes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClassList() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		wantErr bool
	}{
		{"valid port", "8080", false},
		{"valid port - min", "1", false},
		{"valid port - max", "65535", false},
		{"invalid - zero", "0", true},
		{"invalid - too high", "65536", true},
		{"invalid - negative", "-1", true},
		{"invalid - not numeric", "abc", true},
		{"invalid - empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePort(tt.port)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePort() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateListenAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"loopback", "127.0.0.1:7421", false},
		{"localhost", "localhost:7421", false},
		{"all interfaces", ":7421", false},
		{"invalid - no port", "127.0.0.1", true},
		{"invalid - bad port", "127.0.0.1:99999", true},
		{"invalid - bad host", "not a host:80", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListenAddr(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateListenAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCandidateName(t *testing.T) {
	for _, ok := range []string{"python", "python3.11", "/opt/venv/bin/python", `C:\Python311\python.exe`} {
		if err := ValidateCandidateName(ok); err != nil {
			t.Errorf("ValidateCandidateName(%q) error = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "python -u", "python,python3"} {
		if err := ValidateCandidateName(bad); err == nil {
			t.Errorf("ValidateCandidateName(%q) error = nil, want error", bad)
		}
	}
}
