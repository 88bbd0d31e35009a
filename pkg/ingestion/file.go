package ingestion

import "os"

// osFile adapts *os.File to pkg/ingest.ByteReaderAt: os.File has Read and
// ReadAt already, it only lacks Size, which this wrapper caches from the
// Stat call made when the file was opened for submission.
type osFile struct {
	f    *os.File
	size int64
}

func openFile(path string) (*osFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &osFile{f: f, size: info.Size()}, nil
}

func (o *osFile) Read(p []byte) (int, error)               { return o.f.Read(p) }
func (o *osFile) ReadAt(p []byte, off int64) (int, error)   { return o.f.ReadAt(p, off) }
func (o *osFile) Size() int64                               { return o.size }
func (o *osFile) Seek(off int64, whence int) (int64, error) { return o.f.Seek(off, whence) }
func (o *osFile) Close() error                              { return o.f.Close() }
