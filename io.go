package tsfile

import (
	"io"
	"os"
)

// fileWriter wraps an *os.File opened for append-only writing, tracking
// the current write offset so callers (chunk groups, the metadata index
// builder) can record absolute file offsets without a separate Seek.
type fileWriter struct {
	f      *os.File
	offset int64
}

func openFileWriter(path string) (*fileWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, wrapErr(ErrCodeFileOpen, "opening tsfile for write", err)
	}
	return &fileWriter{f: f}, nil
}

// Append writes data at the current offset and returns the offset it was
// written at.
func (fw *fileWriter) Append(data []byte) (int64, error) {
	at := fw.offset
	n, err := fw.f.Write(data)
	fw.offset += int64(n)
	if err != nil {
		return at, wrapErr(ErrCodeFileWrite, "appending to tsfile", err)
	}
	return at, nil
}

func (fw *fileWriter) Offset() int64 { return fw.offset }

func (fw *fileWriter) Sync() error {
	if err := fw.f.Sync(); err != nil {
		return wrapErr(ErrCodeFileWrite, "syncing tsfile", err)
	}
	return nil
}

func (fw *fileWriter) Close() error {
	if err := fw.f.Close(); err != nil {
		return wrapErr(ErrCodeFileWrite, "closing tsfile", err)
	}
	return nil
}

// fileReader wraps an *os.File opened for random-access reads, exposing
// both io.ReaderAt (for the metadata index's offset-addressed descent)
// and sequential Section readers (for chunk-group and page payloads).
type fileReader struct {
	f *os.File
}

func openFileReader(path string) (*fileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(ErrCodeFileOpen, "opening tsfile for read", err)
	}
	return &fileReader{f: f}, nil
}

func (fr *fileReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := fr.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, wrapErr(ErrCodeFileRead, "reading tsfile", err)
	}
	return n, err
}

func (fr *fileReader) Size() (int64, error) {
	info, err := fr.f.Stat()
	if err != nil {
		return 0, wrapErr(ErrCodeFileRead, "stat tsfile", err)
	}
	return info.Size(), nil
}

// SectionReader returns a reader over [offset, offset+size) suitable for
// sequential decoding with the byteReader helpers.
func (fr *fileReader) SectionReader(offset, size int64) byteReader {
	return newByteReader(io.NewSectionReader(fr.f, offset, size))
}

func (fr *fileReader) Close() error {
	if err := fr.f.Close(); err != nil {
		return wrapErr(ErrCodeFileRead, "closing tsfile", err)
	}
	return nil
}
