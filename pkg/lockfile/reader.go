package lockfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

var ErrMissingLockfile = errors.New("missing lockfile")

func Read(ctx context.Context, path string) (*Lock, error) {
	log := logr.FromContextOrDiscard(ctx)
	lock, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissingLockfile
		}
		log.Error(err, "failed to open lockfile")
		return nil, err
	}
	defer lock.Close()
	// read the lockfile
	var lockFile Lock
	if err := json.NewDecoder(lock).Decode(&lockFile); err != nil {
		log.Error(err, "failed to read lockfile")
		return nil, err
	}
	for k, v := range lockFile.Packages {
		v.Name = k
		lockFile.Packages[k] = v
	}
	return &lockFile, nil
}

// Write exports the lockfile as indented JSON.
func (l *Lock) Write(ctx context.Context, path string) error {
	log := logr.FromContextOrDiscard(ctx)
	log.Info("exporting lockfile", "path", path)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "\t")
	return enc.Encode(l)
}

// Name returns the lockfile path that belongs
// to a configuration file.
func Name(s string) string {
	return strings.TrimSuffix(s, filepath.Ext(s)) + "-lock.json"
}
