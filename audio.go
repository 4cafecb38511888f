package go_ncm

import "io"

// SizedReadAt is a random-access byte source with a known total size.
type SizedReadAt interface {
	io.ReaderAt

	Size() int64
}
