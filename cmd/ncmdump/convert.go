package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/gofrs/flock"
	ncm "github.com/mellowave/go-ncm"
	"github.com/mellowave/go-ncm/audio"
	"github.com/mellowave/go-ncm/decoder"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func coverMIME(cover []byte) string {
	if bytes.HasPrefix(cover, pngMagic) {
		return "image/png"
	}
	return "image/jpeg"
}

// convertFile decrypts one NCM file into its output path. On any failure or
// cancellation the partially written temp file is removed, so no corrupt
// output is ever left in place.
func convertFile(ctx context.Context, log ncm.Logger, cfg *Config, path string) error {
	f, err := decoder.Open(path, log)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	outDir := cfg.Output
	if outDir == "" {
		outDir = filepath.Dir(path)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, base+f.Format.Ext())

	if !cfg.Force {
		if _, err := os.Stat(outPath); err == nil {
			log.Infof("skipping %s, output exists", path)
			return nil
		}
	}

	// Guard against concurrent invocations racing on the same output.
	lock := flock.New(outPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking output: %w", err)
	}
	if !locked {
		return fmt.Errorf("output %s is locked by another process", outPath)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if err := writeOutput(ctx, f, outPath); err != nil {
		return err
	}

	log.WithField("format", f.Format.String()).Infof("converted %s -> %s", path, outPath)
	return nil
}

func writeOutput(ctx context.Context, f *decoder.File, outPath string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(outPath), filepath.Base(outPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriterSize(tmp, audio.DefaultChunkSize)

	if f.Format == audio.FormatMP3 {
		if err = writeID3(w, f); err != nil {
			return fmt.Errorf("writing tags: %w", err)
		}
	}

	if _, err = audio.Copy(ctx, w, f.Audio()); err != nil {
		return err
	}

	if err = w.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	return os.Rename(tmp.Name(), outPath)
}

// writeID3 prepends an ID3v2 frame with the container metadata and cover
// image. Tag writing is best effort in the same way metadata decoding is: an
// empty record simply produces no frames.
func writeID3(w *bufio.Writer, f *decoder.File) error {
	if f.Metadata.Empty() && f.Cover == nil {
		return nil
	}

	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if f.Metadata.Title != "" {
		tag.SetTitle(f.Metadata.Title)
	}
	if names := f.Metadata.ArtistNames(); names != "" {
		tag.SetArtist(names)
	}
	if f.Metadata.Album != "" {
		tag.SetAlbum(f.Metadata.Album)
	}

	if f.Cover != nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingISO,
			MimeType:    coverMIME(f.Cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     f.Cover,
		})
	}

	_, err := tag.WriteTo(w)
	return err
}
