package pathutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{
			name:     "simple relative path",
			absPath:  "/home/user/project/src/main.go",
			rootDir:  "/home/user/project",
			expected: "src/main.go",
		},
		{
			name:     "nested relative path",
			absPath:  "/home/user/project/internal/grammar/chart.go",
			rootDir:  "/home/user/project",
			expected: "internal/grammar/chart.go",
		},
		{
			name:     "root level file",
			absPath:  "/home/user/project/set.mm",
			rootDir:  "/home/user/project",
			expected: "set.mm",
		},
		{
			name:     "same directory",
			absPath:  "/home/user/project",
			rootDir:  "/home/user/project",
			expected: ".",
		},
		{
			name:     "already relative path",
			absPath:  "set.mm",
			rootDir:  "/home/user/project",
			expected: "set.mm",
		},
		{
			name:     "path outside root falls back to absolute",
			absPath:  "/other/location/set.mm",
			rootDir:  "/home/user/project",
			expected: "/other/location/set.mm",
		},
		{
			name:     "empty root directory",
			absPath:  "/home/user/project/set.mm",
			rootDir:  "",
			expected: "/home/user/project/set.mm",
		},
		{
			name:     "empty absolute path",
			absPath:  "",
			rootDir:  "/home/user/project",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRelative(tt.absPath, tt.rootDir)
			if runtime.GOOS == "windows" {
				result = filepath.ToSlash(result)
				tt.expected = filepath.ToSlash(tt.expected)
			}
			if result != tt.expected {
				t.Errorf("ToRelative(%q, %q) = %q, want %q", tt.absPath, tt.rootDir, result, tt.expected)
			}
		})
	}
}
