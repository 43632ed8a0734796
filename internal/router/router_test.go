package router_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CoKeFish/ExtractDataRolita/internal/projector"
	"github.com/CoKeFish/ExtractDataRolita/internal/router"
	"github.com/CoKeFish/ExtractDataRolita/internal/schema"
	"github.com/CoKeFish/ExtractDataRolita/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)

func TestFolderName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		vehicle string
		day     time.Time

		want string
	}{
		"Last four characters":    {vehicle: "BUS1234", day: day, want: "1234-15-01-2024"},
		"Day and month padded":    {vehicle: "0042", day: time.Date(2023, time.March, 5, 0, 0, 0, 0, time.UTC), want: "0042-05-03-2023"},
		"Short id is kept whole":  {vehicle: "77", day: day, want: "77-15-01-2024"},
		"Unknown vehicle":         {vehicle: "desconocido", day: day, want: "cido-15-01-2024"},
		"Multi byte runes":        {vehicle: "BUSÑ123", day: day, want: "Ñ123-15-01-2024"},
		"End of year":             {vehicle: "BUS9999", day: time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC), want: "9999-31-12-2024"},
		"Empty id keeps the date": {vehicle: "", day: day, want: "-15-01-2024"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, router.FolderName(tc.vehicle, tc.day), "Unexpected folder name")
		})
	}
}

func TestRouteWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	reg := schema.New()
	root := t.TempDir()
	r := router.New(root, reg)

	first := p20Row("BUS1234", "2024-01-15 08:00:00.000", "10")
	second := p20Row("BUS1234", "2024-01-15 09:00:00.000", "20")

	path, err := r.Route(first, "P20", "BUS1234", day)
	require.NoError(t, err, "First Route should not fail")
	assert.Equal(t, filepath.Join(root, "1234-15-01-2024", "P20.csv"), path, "Unexpected table path")

	_, err = r.Route(second, "P20", "BUS1234", day.Add(time.Hour))
	require.NoError(t, err, "Second Route should not fail")

	header, _ := reg.SchemaFor("P20")
	lines := readLines(t, path)
	require.Len(t, lines, 3, "Table should hold the header and two rows")
	assert.Equal(t, strings.Join(header, ","), lines[0], "Unexpected header")
	assert.Contains(t, lines[1], "2024-01-15 08:00:00.000", "First row should come first")
	assert.Contains(t, lines[2], "2024-01-15 09:00:00.000", "Second row should come second")
}

func TestRouteAppendsToExistingTables(t *testing.T) {
	t.Parallel()

	reg := schema.New()
	root := t.TempDir()

	_, err := router.New(root, reg).Route(p20Row("BUS1234", "", "1"), "P20", "BUS1234", day)
	require.NoError(t, err, "Setup: first run should not fail")

	// A second run on the same output root.
	path, err := router.New(root, reg).Route(p20Row("BUS1234", "", "2"), "P20", "BUS1234", day)
	require.NoError(t, err, "Second run should not fail")

	lines := readLines(t, path)
	require.Len(t, lines, 3, "Second run should append below the first one")
	assert.True(t, strings.HasPrefix(lines[0], "versionTrama,"), "Header should stay first")
	assert.NotEqual(t, lines[0], lines[2], "Header should not be written again")
}

func TestRouteSeparatesTables(t *testing.T) {
	t.Parallel()

	reg := schema.New()
	root := t.TempDir()
	r := router.New(root, reg)

	_, err := r.Route(p20Row("BUS1234", "", "1"), "P20", "BUS1234", day)
	require.NoError(t, err, "Route should not fail")

	ev6, _ := reg.SchemaFor("EV6")
	_, err = r.Route(make(projector.Row, len(ev6)), "EV6", "BUS1234", day)
	require.NoError(t, err, "Route should not fail")

	_, err = r.Route(p20Row("BUS5678", "", "1"), "P20", "BUS5678", day)
	require.NoError(t, err, "Route should not fail")

	_, err = r.Route(p20Row("BUS1234", "", "1"), "P20", "BUS1234", day.AddDate(0, 0, 1))
	require.NoError(t, err, "Route should not fail")

	got, err := testutils.GetDirContents(t, root, 2)
	require.NoError(t, err, "Could not read output tree")

	want := []string{"1234-15-01-2024/P20.csv", "1234-15-01-2024/EV6.csv", "5678-15-01-2024/P20.csv", "1234-16-01-2024/P20.csv"}
	assert.Len(t, got, len(want), "Unexpected number of tables")
	for _, p := range want {
		assert.Contains(t, got, p, "Missing table %s", p)
		assert.Len(t, strings.Split(strings.TrimSpace(got[p]), "\n"), 2, "Table %s should hold a header and one row", p)
	}
}

func TestRouteErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		code     string
		row      projector.Row
		rootFile bool

		wantErr error
	}{
		"Unknown type":        {code: "EV99", row: projector.Row{}, wantErr: router.ErrUnknownType},
		"Row too short":       {code: "P20", row: projector.Row{"a"}, wantErr: router.ErrRowWidth},
		"Unwritable root":     {code: "P20", row: p20Row("BUS1234", "", "1"), rootFile: true},
		"Unformattable value": {code: "P20", row: withValue(p20Row("BUS1234", "", "1"), func() {})},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			if tc.rootFile {
				root = filepath.Join(root, "file")
				require.NoError(t, os.WriteFile(root, nil, 0600), "Setup: could not create file root")
			}

			_, err := router.New(root, schema.New()).Route(tc.row, tc.code, "BUS1234", day)
			require.Error(t, err, "Route should fail")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr, "Unexpected error")
			}

			if !tc.rootFile {
				got, err := testutils.GetDirContents(t, root, 2)
				require.NoError(t, err, "Could not read output tree")
				assert.Empty(t, got, "A failed route should not write any table")
			}
		})
	}
}

func TestRouteFormatsCells(t *testing.T) {
	t.Parallel()

	reg := schema.New()
	header, _ := reg.SchemaFor("EV1")
	row := make(projector.Row, len(header))
	values := []any{nil, "text, with comma", json.Number("12.50"), true, -1, int64(7), 0.25, map[string]any{"a": json.Number("1")}, []any{"x"}}
	copy(row, values)

	path, err := router.New(t.TempDir(), reg).Route(row, "EV1", "BUS1234", day)
	require.NoError(t, err, "Route should not fail")

	lines := readLines(t, path)
	require.Len(t, lines, 2, "Table should hold the header and one row")
	assert.True(t, strings.HasPrefix(lines[1], `,"text, with comma",12.50,true,-1,7,0.25,"{""a"":1}","[""x""]"`), "Unexpected row %q", lines[1])
}

func TestRouteConcurrentAppends(t *testing.T) {
	t.Parallel()

	const n = 50
	r := router.New(t.TempDir(), schema.New())

	var wg sync.WaitGroup
	paths := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.Route(p20Row("BUS1234", "", fmt.Sprint(i)), "P20", "BUS1234", day)
			assert.NoError(t, err, "Route should not fail")
			paths[i] = p
		}()
	}
	wg.Wait()

	lines := readLines(t, paths[0])
	assert.Len(t, lines, n+1, "Every row should be appended below a single header")
}

// p20Row builds a P20 row with the vehicle, read time and speed set.
func p20Row(vehicle, readAt, speed string) projector.Row {
	columns, _ := schema.New().SchemaFor("P20")
	row := make(projector.Row, len(columns))
	for i, c := range columns {
		switch c {
		case "idVehiculo":
			row[i] = vehicle
		case "fechaHoraLecturaDato":
			row[i] = readAt
		case "velocidadVehiculo":
			row[i] = json.Number(speed)
		}
	}
	return row
}

func withValue(row projector.Row, v any) projector.Row {
	row[len(row)-1] = v
	return row
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "Could not read table %s", path)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
