package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	if err := os.MkdirAll(safeDir, 0755); err != nil {
		t.Fatalf("Failed to create safe directory: %v", err)
	}
	if err := os.MkdirAll(unsafeDir, 0755); err != nil {
		t.Fatalf("Failed to create unsafe directory: %v", err)
	}
	symlinkPath := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{"file in directory", filepath.Join(safeDir, "rho.dat"), safeDir, false},
		{"nested file not yet created", filepath.Join(safeDir, "Fundamental_Diagram", "Classical_Voronoi", "rho.dat"), safeDir, false},
		{"directory itself", safeDir, safeDir, false},
		{"dot-dot escape", filepath.Join(safeDir, "..", "unsafe", "x.dat"), safeDir, true},
		{"sibling with shared prefix", safeDir + "-other/x.dat", safeDir, true},
		{"absolute outside", "/etc/passwd", safeDir, true},
		{"through symlink", filepath.Join(symlinkPath, "x.dat"), safeDir, true},
		{"through symlink into missing subdir", filepath.Join(symlinkPath, "a", "b.dat"), safeDir, true},
		{"safe dir does not exist", filepath.Join(tmpDir, "plots", "a.png"), filepath.Join(tmpDir, "plots"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q, %q) error = %v, wantError %v", tt.filePath, tt.safeDir, err, tt.wantError)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"method_E_line 2_flow", "method_E_line_2_flow"},
		{"method_G_polygon 0_density", "method_G_polygon_0_density"},
		{"../../etc/passwd", "etc_passwd"},
		{"a  //  b", "a_b"},
		{"", "unknown"},
		{"...", "unknown"},
		{"v1.3-ms", "v1.3-ms"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	if got := SanitizeFilename(string(long)); len(got) != maxFilenameLen {
		t.Errorf("len = %d, want %d", len(got), maxFilenameLen)
	}
}
