package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	ncm "github.com/mellowave/go-ncm"
	"github.com/mellowave/go-ncm/container"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// isNCMFile probes the container magic so misnamed files are skipped before
// any decryption is attempted.
func isNCMFile(path string) bool {
	fh, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = fh.Close() }()

	magic := make([]byte, len(container.Magic))
	if _, err := io.ReadFull(fh, magic); err != nil {
		return false
	}
	return bytes.Equal(magic, container.Magic)
}

// gatherInputs expands files and directories into the list of NCM files to
// convert. Directories are walked recursively for .ncm files.
func gatherInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if isNCMFile(arg) {
				files = append(files, arg)
			} else {
				log.Warnf("skipping %s, not an ncm file", arg)
			}
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ncm") {
				return nil
			}
			if isNCMFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func run() int {
	cfg, flags, err := loadConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if version, _ := flags.GetBool("version"); version {
		fmt.Println(ncm.VersionString())
		return 0
	}

	if err := setupLogging(cfg); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	if cfg.Output != "" {
		if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
			log.WithError(err).Error("failed creating output directory")
			return 1
		}
	}

	files, err := gatherInputs(flags.Args())
	if err != nil {
		log.WithError(err).Error("failed collecting input files")
		return 1
	}
	if len(files) == 0 {
		log.Error("no ncm files found")
		return 1
	}

	log.Infof("converting %d file(s) with %d worker(s)", len(files), cfg.Workers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(cfg.Workers)

	for _, path := range files {
		path := path
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			entry := LogrusAdapter{log.WithField("file", filepath.Base(path))}
			if err := convertFile(ctx, entry, cfg, path); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				entry.WithError(err).Error("conversion failed")
				failed.Add(1)
			}
			return nil
		})
	}

	_ = g.Wait()

	if ctx.Err() != nil {
		log.Warn("interrupted")
		return 1
	}

	if n := failed.Load(); n > 0 {
		log.Errorf("%d of %d file(s) failed", n, len(files))
		return 1
	}

	log.Infof("all %d file(s) converted", len(files))
	return 0
}

func main() {
	os.Exit(run())
}
