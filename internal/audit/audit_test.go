package audit_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/CoKeFish/ExtractDataRolita/internal/audit"
	"github.com/CoKeFish/ExtractDataRolita/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setupRoot creates a capture tree covering every folder status.
func setupRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{
		"1234-15-01-2024/SensorData_2024_01_15_08.txt": "",
		"1234-15-01-2024/SensorData_2024_01_15_10.txt": "",
		"1234-15-01-2024/notes.txt":                    "",
		"1234-16-01-2024/SensorData_2024_01_15_09.txt": "",
		"1234-16-01-2024/SensorData_2024_01_16_07.txt": "",
		"cido-15-01-2024/SensorData_2024_01_15_08.txt": "",
		"1234-31-02-2024/SensorData_2024_02_31_08.txt": "",
		"9999-01-01-2024":                              "not a folder",
		"summary.txt":                                  "previous summary",
	})
	for _, d := range []string{"5678-20-01-2024", "42-21-01-2024"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, d), 0750), "Setup: could not create empty folder")
	}
	return root
}

var wantSummary = audit.Summary{
	Folders: []audit.Folder{
		{Name: "1234-15-01-2024", Bus: "1234", Start: "2024-01-15 08:00:00", End: "2024-01-15 10:00:00", Hours: 3, Status: audit.StatusOK},
		{Name: "1234-16-01-2024", Bus: "1234", Start: "2024-01-16 07:00:00", End: "2024-01-16 07:00:00", Hours: 1, Status: audit.StatusDateMismatch},
		{Name: "42-21-01-2024", Bus: "42", Start: "N/A", End: "N/A", Status: audit.StatusNoFiles},
		{Name: "5678-20-01-2024", Bus: "5678", Start: "N/A", End: "N/A", Status: audit.StatusNoFiles},
	},
	Problems: []audit.Problem{
		{Folder: "1234-16-01-2024", Problem: "date mismatch"},
		{Folder: "42-21-01-2024", Problem: "no TXT files"},
		{Folder: "5678-20-01-2024", Problem: "no TXT files"},
	},
	Hours: []audit.BusHours{{Bus: "42"}, {Bus: "1234", Hours: 4}, {Bus: "5678"}},
	Weeks: []audit.BusWeeks{
		{Bus: "42", Weeks: []audit.Week{{Number: 3, Start: "2024-01-15", End: "2024-01-21", Days: []string{"Sunday"}}}},
		{Bus: "1234", Weeks: []audit.Week{{Number: 2, Start: "2024-01-15", End: "2024-01-21", Days: []string{"Monday", "Tuesday"}}}},
		{Bus: "5678", Weeks: []audit.Week{{Number: 2, Start: "2024-01-15", End: "2024-01-21", Days: []string{"Saturday"}}}},
	},
}

func TestScan(t *testing.T) {
	t.Parallel()

	got, err := audit.Scan(setupRoot(t))
	require.NoError(t, err, "Scan should not fail")
	assert.Equal(t, wantSummary, got, "Unexpected summary")
}

func TestScanEmptyRoot(t *testing.T) {
	t.Parallel()

	got, err := audit.Scan(t.TempDir())
	require.NoError(t, err, "Scan should not fail on an empty root")
	assert.Empty(t, got.Folders, "No folder expected")
	assert.Empty(t, got.Hours, "No bus expected")
}

func TestScanErrors(t *testing.T) {
	t.Parallel()

	_, err := audit.Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err, "Scan should fail on a missing root")
}

func TestWeekKey(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		week audit.Week
		want string
	}{
		"Single digit week is padded": {week: audit.Week{Number: 2, Start: "2024-01-15", End: "2024-01-21"}, want: "Week 02 (2024-01-15 to 2024-01-21)"},
		"Week zero":                   {week: audit.Week{Start: "2022-12-26", End: "2023-01-01"}, want: "Week 00 (2022-12-26 to 2023-01-01)"},
		"Two digit week":              {week: audit.Week{Number: 52, Start: "2024-12-23", End: "2024-12-29"}, want: "Week 52 (2024-12-23 to 2024-12-29)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.week.Key(), "Unexpected week key")
		})
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	s := audit.Summary{
		Folders:  wantSummary.Folders[2:3],
		Problems: wantSummary.Problems[1:2],
		Hours:    wantSummary.Hours[:1],
		Weeks:    wantSummary.Weeks[:1],
	}

	var buf bytes.Buffer
	require.NoError(t, s.WriteText(&buf), "WriteText should not fail")

	want := `Folder: 42-21-01-2024
  Start: N/A
  End: N/A
  Total hours: 0.00
  Status: no TXT files

Problems:
  Folders with mismatched or missing files: 1
  - 42-21-01-2024: no TXT files

Hours per bus:
  - Bus 42: 0.00 hours

Days of the week per week and bus:
Bus: 42
  - Week 03 (2024-01-15 to 2024-01-21): Sunday
`
	assert.Equal(t, want, buf.String(), "Unexpected text report")
}

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		format string

		decode  func([]byte, any) error
		wantErr error
	}{
		"YAML": {format: "yaml", decode: yaml.Unmarshal},
		"TOML": {format: "toml", decode: toml.Unmarshal},

		"Error on unknown format": {format: "xml", wantErr: audit.ErrUnknownFormat},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			err := wantSummary.Encode(&buf, tc.format)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr, "Encode should fail")
				return
			}
			require.NoError(t, err, "Encode should not fail")

			var got audit.Summary
			require.NoError(t, tc.decode(buf.Bytes(), &got), "Encoded summary should be readable back")
			assert.Equal(t, wantSummary, got, "Summary should survive encoding")
		})
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		format string

		wantName string
		wantErr  bool
	}{
		"Text summary": {format: "text", wantName: "summary.txt"},
		"YAML summary": {format: "yaml", wantName: "summary.yaml"},
		"TOML summary": {format: "toml", wantName: "summary.toml"},

		"Error on unknown format": {format: "ini", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := setupRoot(t)
			path, err := audit.Write(root, wantSummary, tc.format)
			if tc.wantErr {
				require.ErrorIs(t, err, audit.ErrUnknownFormat, "Write should fail")
				return
			}
			require.NoError(t, err, "Write should not fail")
			assert.Equal(t, filepath.Join(root, tc.wantName), path, "Unexpected summary path")

			var want bytes.Buffer
			require.NoError(t, wantSummary.Encode(&want, tc.format), "Setup: could not encode summary")
			got, err := os.ReadFile(path)
			require.NoError(t, err, "Summary file should exist")
			assert.Equal(t, want.String(), string(got), "Summary file should hold the encoded summary")

			again, err := audit.Scan(root)
			require.NoError(t, err, "Scan should not fail after writing the summary")
			assert.Equal(t, wantSummary, again, "Summary file should not be audited")
		})
	}
}
