package syncer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/go-logr/logr"
)

// Extractor expands a repository database archive
// into a directory.
type Extractor interface {
	Extract(ctx context.Context, dir string, data []byte) error
}

// CommandExtractor pipes the archive into an external
// program that is run from within the target directory.
type CommandExtractor struct {
	Name string
	Args []string
}

// NewBsdtarExtractor returns an extractor that
// runs "bsdtar xf -".
func NewBsdtarExtractor() *CommandExtractor {
	return &CommandExtractor{
		Name: "bsdtar",
		Args: []string{"xf", "-"},
	}
}

func (c *CommandExtractor) Extract(ctx context.Context, dir string, data []byte) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("cmd", c.Name, "dir", dir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = &stderr

	log.V(3).Info("running extractor", "args", c.Args, "size", len(data))
	if err := cmd.Run(); err != nil {
		log.Error(err, "extractor failed", "stderr", stderr.String())
		return fmt.Errorf("running %s: %w", c.Name, err)
	}
	return nil
}
