package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
)

// FileSink writes gob snapshots to the local filesystem.
//
// The snapshot is written to a temporary file next to the destination,
// synced, and renamed over it, so readers see either the previous snapshot
// or the new one and never a truncated file.
type FileSink struct {
	// DirMode is used when parent directories have to be created.
	DirMode os.FileMode
	// FileMode is applied to the written snapshot.
	FileMode os.FileMode

	logger log.Logger
}

// NewFileSink returns a FileSink with 0o755 directories and 0o644 files.
func NewFileSink(logger log.Logger) *FileSink {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &FileSink{
		DirMode:  0o755,
		FileMode: 0o644,
		logger:   logger.With(log.ComponentKey, "sink", log.SinkKindKey, "file"),
	}
}

// Save implements Sink. destination is a path or a file:// URL.
func (s *FileSink) Save(ctx context.Context, learner interface{}, destination string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewPersistenceError(destination, err)
	}
	path := strings.TrimPrefix(destination, "file://")
	if path == "" {
		return errors.NewPersistenceError(destination, errors.New("empty path"))
	}

	data, err := encode(learner, destination)
	if err != nil {
		return err
	}
	if err := s.write(path, data); err != nil {
		return errors.NewPersistenceError(destination, err)
	}

	s.logger.Info("Model snapshot written",
		log.OperationKey, log.OperationSave,
		log.DestinationKey, destination,
		log.BytesKey, len(data),
	)
	return nil
}

func (s *FileSink) write(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.DirMode); err != nil {
		return errors.Wrap(err, "create directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync snapshot")
	}
	if err = tmp.Chmod(s.FileMode); err != nil {
		return errors.Wrap(err, "chmod snapshot")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replace snapshot")
	}
	return nil
}
