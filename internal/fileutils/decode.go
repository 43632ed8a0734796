package fileutils

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Log captures are written by Windows tooling: UTF-16, little endian unless a BOM says otherwise.
var utf16Encoding = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

// ReadUTF16 reads the whole file as UTF-16 text and returns it as a Go string.
func ReadUTF16(path string) (string, error) {
	return readEncoded(path, utf16Encoding)
}

// ReadUTF8 reads the whole file as UTF-8 text, dropping a leading byte order mark.
// Invalid byte sequences are replaced by U+FFFD.
func ReadUTF8(path string) (string, error) {
	return readEncoded(path, unicode.UTF8BOM)
}

func readEncoded(path string, enc encoding.Encoding) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(transform.NewReader(f, enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("could not decode %q: %v", path, err)
	}
	return string(data), nil
}
