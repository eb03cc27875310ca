package converter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// archive collects the notes of one run into an in-memory ZIP.
type archive struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	modified time.Time
	names    map[string]struct{}
}

func newArchive(modified time.Time) *archive {
	a := &archive{modified: modified, names: make(map[string]struct{})}
	a.zw = zip.NewWriter(&a.buf)
	return a
}

// add stores data under name and returns the entry name actually used.
// Entry names are unique within an archive: a taken name gets "_L<line>"
// before its extension, then a counter if that is taken as well.
func (a *archive) add(name string, line int, data []byte) (string, error) {
	name = a.claim(name, line)

	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.modified,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return name, nil
}

// claim reserves a unique entry name derived from name.
func (a *archive) claim(name string, line int) string {
	name = a.uniqueName(name, line)
	a.names[name] = struct{}{}
	return name
}

func (a *archive) uniqueName(name string, line int) string {
	if _, taken := a.names[name]; !taken {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext) + "_L" + strconv.Itoa(line)

	candidate := base + ext
	for n := 2; ; n++ {
		if _, taken := a.names[candidate]; !taken {
			return candidate
		}
		candidate = base + "_" + strconv.Itoa(n) + ext
	}
}

// close finalizes the archive and returns its bytes.
func (a *archive) close() ([]byte, error) {
	if err := a.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return a.buf.Bytes(), nil
}
