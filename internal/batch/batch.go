// Package batch processes one capture file end to end.
//
// The driver reads the file under the encoding of its shape, archives a verbatim copy in the
// output root, extracts the records, classifies them by message type, projects them and routes
// every row to its destination table. Bad records are reported and skipped: only a file that
// cannot be read, archived or decoded as a whole fails the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/CoKeFish/ExtractDataRolita/internal/constants"
	"github.com/CoKeFish/ExtractDataRolita/internal/extractor"
	"github.com/CoKeFish/ExtractDataRolita/internal/fileutils"
	"github.com/CoKeFish/ExtractDataRolita/internal/projector"
	"github.com/CoKeFish/ExtractDataRolita/internal/router"
	"github.com/CoKeFish/ExtractDataRolita/internal/schema"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/ubuntu/decorate"
)

var (
	// ErrNoTimestamp is reported for records without a read time, which cannot be bucketed by day.
	ErrNoTimestamp = errors.New("record has no read timestamp")

	errPayloadNotObject = errors.New("payload is not an object")
)

// Stats summarizes one processed file.
type Stats struct {
	Records      int            // Records is the number of records extracted from the file.
	Written      int            // Written is the number of rows appended to tables.
	Unclassified int            // Unclassified is the number of records with an unregistered type code.
	Failed       int            // Failed is the number of classified records that could not be written.
	Tables       map[string]int // Tables maps every touched table path to the number of rows appended.
}

// Driver processes capture files.
type Driver struct {
	registry *schema.Registry
	log      *slog.Logger
	runID    string
}

type options struct {
	log   *slog.Logger
	runID string
}

// Options represents an optional function to override Driver default values.
type Options func(*options)

// WithLogger sets the logger receiving the diagnostics.
func WithLogger(log *slog.Logger) Options {
	return func(o *options) {
		o.log = log
	}
}

// WithRunID sets the identifier attached to every diagnostic of the driver.
func WithRunID(id string) Options {
	return func(o *options) {
		o.runID = id
	}
}

// New returns a Driver classifying records with registry.
func New(registry *schema.Registry, args ...Options) *Driver {
	opts := options{log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}
	if opts.runID == "" {
		opts.runID = uuid.NewString()
	}

	return &Driver{
		registry: registry,
		log:      opts.log.With("run", opts.runID),
		runID:    opts.runID,
	}
}

// RunID returns the identifier attached to the diagnostics of d.
func (d *Driver) RunID() string {
	return d.runID
}

// ProcessFile processes input and writes its tables below outputRoot.
//
// The returned Stats are filled even when an error is returned, counting the work done so far.
// Cancelling ctx stops processing between two records.
func (d *Driver) ProcessFile(ctx context.Context, input, outputRoot string) (stats Stats, err error) {
	defer decorate.OnError(&err, "could not process %s", input)

	stats.Tables = make(map[string]int)
	log := d.log.With("input", input)

	shape := extractor.ShapeFor(input)
	log.Debug("Reading capture file", "shape", shape)

	text, err := readText(input, shape)
	if err != nil {
		return stats, err
	}

	if err := os.MkdirAll(outputRoot, 0750); err != nil {
		return stats, fmt.Errorf("could not create output directory: %v", err)
	}
	if err := archive(input, outputRoot, log); err != nil {
		return stats, err
	}

	records, err := extractor.Extract(text, shape, log)
	if err != nil {
		log.Warn("Could not decode JSON document", "error", err)
		return stats, err
	}

	r := router.New(outputRoot, d.registry)
	for rec := range records {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.Records++
		table, err := d.handle(r, rec, shape, log)
		switch {
		case errors.Is(err, router.ErrUnknownType):
			stats.Unclassified++
		case err != nil:
			stats.Failed++
			log.Warn("Could not write record, skipping it", "record", stats.Records, "error", err)
		default:
			stats.Written++
			stats.Tables[table]++
		}
	}

	log.Info("Finished processing file", "records", stats.Records, "written", stats.Written,
		"unclassified", stats.Unclassified, "failed", stats.Failed, "tables", len(stats.Tables))
	return stats, nil
}

// handle classifies, projects and routes one record, returning the table it was written to.
func (d *Driver) handle(r *router.Router, rec extractor.Record, shape extractor.Shape, log *slog.Logger) (string, error) {
	payload, err := unwrap(rec, shape)
	if err != nil {
		return "", err
	}

	env, err := decodeEnvelope(payload)
	if err != nil {
		return "", err
	}

	code := env.typeCode()
	columns, ok := d.registry.SchemaFor(code)
	if !ok {
		log.Warn("Unknown message type, skipping record", "code", code, "kind", schema.KindOf(code))
		return "", fmt.Errorf("%w: %q", router.ErrUnknownType, code)
	}

	readAt, err := env.readTime()
	if err != nil {
		return "", err
	}

	return r.Route(projector.Project(payload, columns), code, env.vehicleID(), readAt)
}

// unwrap returns the payload of rec. JSON documents nest it under the "data" key.
func unwrap(rec extractor.Record, shape extractor.Shape) (extractor.Record, error) {
	if shape != extractor.Document {
		return rec, nil
	}

	v, ok := rec[constants.DocumentPayloadKey]
	if !ok || v == nil {
		return extractor.Record{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errPayloadNotObject
	}
	return extractor.Record(m), nil
}

// envelope holds the attributes needed to classify and route a record.
type envelope struct {
	VehicleID    string `mapstructure:"idVehiculo"`
	ReadTime     string `mapstructure:"fechaHoraLecturaDato"`
	PeriodicCode string `mapstructure:"codigoPeriodica"`
	EventCode    string `mapstructure:"codigoEvento"`
	AlarmCode    string `mapstructure:"codigoAlarma"`
}

func decodeEnvelope(payload extractor.Record) (env envelope, err error) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &env,
	})
	if err != nil {
		return envelope{}, fmt.Errorf("failed to create decoder: %v", err)
	}

	if err := dec.Decode(map[string]any(payload)); err != nil {
		return envelope{}, fmt.Errorf("record envelope has unexpected types: %v", err)
	}
	return env, nil
}

// typeCode returns the periodic code, else the event code, else the alarm code.
func (e envelope) typeCode() string {
	for _, c := range []string{e.PeriodicCode, e.EventCode, e.AlarmCode} {
		if c != "" {
			return c
		}
	}
	return ""
}

func (e envelope) vehicleID() string {
	if e.VehicleID == "" {
		return constants.UnknownVehicle
	}
	return e.VehicleID
}

func (e envelope) readTime() (time.Time, error) {
	if e.ReadTime == "" {
		return time.Time{}, ErrNoTimestamp
	}
	return schema.ParseTimestamp(e.ReadTime)
}

func readText(input string, shape extractor.Shape) (string, error) {
	if shape == extractor.Document {
		return fileutils.ReadUTF8(input)
	}
	return fileutils.ReadUTF16(input)
}

// archive copies input verbatim into outputRoot.
func archive(input, outputRoot string, log *slog.Logger) error {
	dst := filepath.Join(outputRoot, filepath.Base(input))
	if fileutils.SameFile(input, dst) {
		log.Info("Input already lives in the output directory, not copying it")
		return nil
	}

	if err := fileutils.CopyFile(input, dst); err != nil {
		return fmt.Errorf("could not copy raw file: %v", err)
	}
	log.Debug("Copied raw file", "destination", dst)
	return nil
}
