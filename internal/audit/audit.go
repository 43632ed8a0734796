// Package audit summarizes a directory of daily capture folders.
//
// Every folder named after a bus number and a day holds the hourly sensor captures of that bus on
// that day. The audit reports the hours covered per folder and per bus, the folders with missing or
// misplaced captures, and the days of the week each bus was recorded on.
package audit

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ubuntu/decorate"
)

// Status is the outcome of the audit of one folder.
type Status string

const (
	// StatusNoFiles is reported for folders without any capture.
	StatusNoFiles Status = "no TXT files"
	// StatusDateMismatch is reported for folders holding captures of another day.
	StatusDateMismatch Status = "TXT files with mismatched date"
	// StatusOK is reported for folders whose captures all belong to the folder day.
	StatusOK Status = "TXT files OK"
)

const (
	problemNoFiles      = "no TXT files"
	problemDateMismatch = "date mismatch"

	notAvailable = "N/A"
	hourLayout   = "2006-01-02 15:04:05"
	dayLayout    = "2006-01-02"
)

var (
	folderRE  = regexp.MustCompile(`^(\d+)-(\d{2})-(\d{2})-(\d{4})`)
	captureRE = regexp.MustCompile(`^SensorData_(\d{4})_(\d{2})_(\d{2})_(\d{2})\.txt`)
)

// Folder is the audit of one capture folder.
type Folder struct {
	Name   string  `yaml:"name" toml:"name"`
	Bus    string  `yaml:"bus" toml:"bus"`
	Start  string  `yaml:"start" toml:"start"`
	End    string  `yaml:"end" toml:"end"`
	Hours  float64 `yaml:"hours" toml:"hours"`
	Status Status  `yaml:"status" toml:"status"`
}

// Problem names a folder needing attention.
type Problem struct {
	Folder  string `yaml:"folder" toml:"folder"`
	Problem string `yaml:"problem" toml:"problem"`
}

// BusHours is the number of hours captured for one bus over all its folders.
type BusHours struct {
	Bus   string  `yaml:"bus" toml:"bus"`
	Hours float64 `yaml:"hours" toml:"hours"`
}

// Week lists the days of one week a bus was recorded on.
type Week struct {
	Number int      `yaml:"number" toml:"number"`
	Start  string   `yaml:"start" toml:"start"`
	End    string   `yaml:"end" toml:"end"`
	Days   []string `yaml:"days" toml:"days"`
}

// Key returns the human readable label of w.
func (w Week) Key() string {
	return fmt.Sprintf("Week %02d (%s to %s)", w.Number, w.Start, w.End)
}

// BusWeeks holds the recorded weeks of one bus.
type BusWeeks struct {
	Bus   string `yaml:"bus" toml:"bus"`
	Weeks []Week `yaml:"weeks" toml:"weeks"`
}

// Summary is the audit of a root directory.
// Every list is sorted: folders and problems by folder name, buses by number and weeks by start day.
type Summary struct {
	Folders  []Folder   `yaml:"folders" toml:"folders"`
	Problems []Problem  `yaml:"problems" toml:"problems"`
	Hours    []BusHours `yaml:"hours" toml:"hours"`
	Weeks    []BusWeeks `yaml:"weeks" toml:"weeks"`
}

// Scan audits every capture folder directly under root.
// Entries whose name does not start with a bus number and a date, or that are not directories, are ignored.
func Scan(root string) (s Summary, err error) {
	defer decorate.OnError(&err, "could not audit %s", root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return Summary{}, err
	}

	hours := make(map[string]float64)
	weeks := make(map[string]map[string]*Week)

	for _, e := range entries {
		m := folderRE.FindStringSubmatch(e.Name())
		if m == nil || !e.IsDir() {
			continue
		}

		bus := m[1]
		day, err := time.Parse(dayLayout, fmt.Sprintf("%s-%s-%s", m[4], m[3], m[2]))
		if err != nil {
			slog.Warn("Ignoring folder with an invalid date", "folder", e.Name(), "error", err)
			continue
		}

		f, err := scanFolder(filepath.Join(root, e.Name()), bus, day)
		if err != nil {
			return Summary{}, err
		}
		f.Name = e.Name()

		s.Folders = append(s.Folders, f)
		switch f.Status {
		case StatusNoFiles:
			s.Problems = append(s.Problems, Problem{Folder: f.Name, Problem: problemNoFiles})
		case StatusDateMismatch:
			s.Problems = append(s.Problems, Problem{Folder: f.Name, Problem: problemDateMismatch})
		}
		hours[bus] += f.Hours

		if weeks[bus] == nil {
			weeks[bus] = make(map[string]*Week)
		}
		w := weekOf(day)
		if prev, ok := weeks[bus][w.Key()]; ok {
			w = prev
		} else {
			weeks[bus][w.Key()] = w
		}
		if name := day.Weekday().String(); !slices.Contains(w.Days, name) {
			w.Days = append(w.Days, name)
		}
	}

	slices.SortFunc(s.Folders, func(a, b Folder) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(s.Problems, func(a, b Problem) int { return strings.Compare(a.Folder, b.Folder) })

	for _, bus := range sortedBuses(hours) {
		s.Hours = append(s.Hours, BusHours{Bus: bus, Hours: hours[bus]})

		bw := BusWeeks{Bus: bus}
		for _, w := range weeks[bus] {
			slices.Sort(w.Days)
			bw.Weeks = append(bw.Weeks, *w)
		}
		slices.SortFunc(bw.Weeks, func(a, b Week) int { return strings.Compare(a.Start, b.Start) })
		s.Weeks = append(s.Weeks, bw)
	}

	return s, nil
}

// scanFolder audits the captures of one folder, expected to belong to day.
func scanFolder(dir, bus string, day time.Time) (Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Folder{}, err
	}

	f := Folder{Bus: bus, Start: notAvailable, End: notAvailable}
	var first, last time.Time
	var found, mismatch bool

	for _, e := range entries {
		m := captureRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		found = true

		at, err := time.Parse("2006-01-02 15", fmt.Sprintf("%s-%s-%s %s", m[1], m[2], m[3], m[4]))
		if err != nil || at.Format(dayLayout) != day.Format(dayLayout) {
			mismatch = true
			continue
		}

		if first.IsZero() || at.Before(first) {
			first = at
		}
		if last.IsZero() || at.After(last) {
			last = at
		}
	}

	if !first.IsZero() {
		f.Start = first.Format(hourLayout)
		f.End = last.Format(hourLayout)
		f.Hours = last.Sub(first).Hours() + 1
	}

	switch {
	case !found:
		f.Status = StatusNoFiles
	case mismatch:
		f.Status = StatusDateMismatch
	default:
		f.Status = StatusOK
	}
	return f, nil
}

// weekOf returns the Sunday based week of the year of day, spanning Monday to Sunday.
func weekOf(day time.Time) *Week {
	yday := day.YearDay() - 1
	wday := int(day.Weekday())
	// Days since Monday.
	sinceMonday := (wday + 6) % 7

	return &Week{
		Number: (yday + 7 - wday) / 7,
		Start:  day.AddDate(0, 0, -sinceMonday).Format(dayLayout),
		End:    day.AddDate(0, 0, 6-sinceMonday).Format(dayLayout),
	}
}

// sortedBuses returns the buses of hours in numerical order.
func sortedBuses(hours map[string]float64) []string {
	return slices.SortedFunc(maps.Keys(hours), func(a, b string) int {
		na, errA := strconv.ParseUint(a, 10, 64)
		nb, errB := strconv.ParseUint(b, 10, 64)
		if errA != nil || errB != nil || na == nb {
			return strings.Compare(a, b)
		}
		if na < nb {
			return -1
		}
		return 1
	})
}
