package config

import (
	"os"
	"path/filepath"
)

// ColloquyPath returns the root directory for Colloquy data.
// It uses $COLLOQUY_PATH if set, otherwise defaults to ~/.colloquy.
func ColloquyPath() string {
	if v := os.Getenv("COLLOQUY_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".colloquy")
	}
	return filepath.Join(home, ".colloquy")
}

// ConfigPath returns the path to the Colloquy config file.
func ConfigPath() string {
	return filepath.Join(ColloquyPath(), "config.jsonc")
}

// DotenvPath returns the path to the Colloquy .env file.
func DotenvPath() string {
	return filepath.Join(ColloquyPath(), ".env")
}

// ScenariosPath returns the directory holding scenario files.
func ScenariosPath() string {
	return filepath.Join(ColloquyPath(), "scenarios")
}

// TranscriptsPath returns the directory holding persisted conversations.
func TranscriptsPath() string {
	return filepath.Join(ColloquyPath(), "transcripts")
}

// MemoryPath returns the directory holding per-participant memory files.
func MemoryPath() string {
	return filepath.Join(ColloquyPath(), "memory")
}

// MediaPath returns the directory holding generated images and videos.
func MediaPath() string {
	return filepath.Join(ColloquyPath(), "media")
}
