// Package router appends projected rows to their destination tables.
//
// A destination table is identified by the vehicle, the calendar day of the read time and the
// message type. It lives at {root}/{vehicle}-{DD}-{MM}-{YYYY}/{code}.csv. The header row is
// written when the file is created and never rewritten; later rows are appended in call order.
package router

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/CoKeFish/ExtractDataRolita/internal/constants"
	"github.com/CoKeFish/ExtractDataRolita/internal/projector"
	"github.com/CoKeFish/ExtractDataRolita/internal/schema"
)

var (
	// ErrUnknownType is returned when routing a row for a code absent from the registry.
	ErrUnknownType = errors.New("unknown message type")

	// ErrRowWidth is returned when a row does not have one value per schema column.
	ErrRowWidth = errors.New("row width does not match schema")
)

// Router writes rows below a root directory.
// It is safe for concurrent use within one process. Several processes appending to the same
// table need to coordinate outside of the router.
type Router struct {
	root     string
	registry *schema.Registry

	mu sync.Mutex
}

// New returns a Router writing below root.
func New(root string, registry *schema.Registry) *Router {
	return &Router{root: root, registry: registry}
}

// FolderName returns the destination folder name for a vehicle and a day:
// the last 4 characters of vehicleID, then the zero padded day, month and the year.
func FolderName(vehicleID string, day time.Time) string {
	return fmt.Sprintf("%s-%02d-%02d-%d", vehicleSuffix(vehicleID), day.Day(), int(day.Month()), day.Year())
}

// TablePath returns where the table for vehicleID, day and code is stored.
func (r *Router) TablePath(code, vehicleID string, day time.Time) string {
	return filepath.Join(r.root, FolderName(vehicleID, day), code+constants.TableExt)
}

// Route appends row to the table of code for vehicleID on the day of readAt and returns the table path.
// The folder is created if needed, and the header is written first when the table did not exist.
func (r *Router) Route(row projector.Row, code, vehicleID string, readAt time.Time) (string, error) {
	header, ok := r.registry.SchemaFor(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, code)
	}
	if len(row) != len(header) {
		return "", fmt.Errorf("%w: %s has %d columns, got %d values", ErrRowWidth, code, len(header), len(row))
	}

	path := r.TablePath(code, vehicleID, readAt)
	record := make([]string, len(row))
	for i, v := range row {
		cell, err := formatCell(v)
		if err != nil {
			return "", fmt.Errorf("could not format column %q: %v", header[i], err)
		}
		record[i] = cell
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("could not create destination folder: %v", err)
	}

	if err := appendRecord(path, header, record); err != nil {
		return "", err
	}
	return path, nil
}

func appendRecord(path string, header, record []string) (err error) {
	_, err = os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not stat table: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("could not open table: %v", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close table: %v", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("could not write header: %v", err)
		}
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("could not write row: %v", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not flush table: %v", err)
	}
	return nil
}

func vehicleSuffix(id string) string {
	r := []rune(id)
	if len(r) <= constants.VehicleSuffixLen {
		return id
	}
	return string(r[len(r)-constants.VehicleSuffixLen:])
}

// formatCell renders one value the way it appears in the table.
func formatCell(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
