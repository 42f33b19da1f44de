package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanStrings cleans every item of `list` and drops the empty ones.
func CleanStrings(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = CleanString(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewID returns a new random entity ID.
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s looks like an entity ID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the package being tested, so we walk up from there.
// Falls back to the working directory when no go.mod is found (e.g. a deployed binary).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
