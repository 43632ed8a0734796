// Package schema is the registry of telemetry message types.
// It maps each message type code to the ordered list of columns of its output table.
// Column order is part of the output contract: it is the order of the generated CSV headers.
package schema

import (
	"slices"
	"strings"
)

// Kind is the family a message type belongs to.
type Kind int

const (
	// Unknown is returned for codes that are not registered.
	Unknown Kind = iota
	// Periodic reports are sent at a fixed rate.
	Periodic
	// Event reports a discrete event.
	Event
	// Alarm reports an alarm condition.
	Alarm
)

func (k Kind) String() string {
	switch k {
	case Periodic:
		return "periodic"
	case Event:
		return "event"
	case Alarm:
		return "alarm"
	default:
		return "unknown"
	}
}

// Envelope attributes with a special projection.
const (
	ReadTime     = "fechaHoraLecturaDato"
	SendTime     = "fechaHoraEnvioDato"
	Latitude     = "latitud"
	Longitude    = "longitud"
	VehicleID    = "idVehiculo"
	LocationKey  = "localizacionVehiculo"
	PeriodicCode = "codigoPeriodica"
	EventCode    = "codigoEvento"
	AlarmCode    = "codigoAlarma"
)

var envelope = []string{
	"versionTrama", "idRegistro", "idOperador", VehicleID, "idRuta", "idConductor",
	ReadTime, SendTime, "tipoBus", Latitude, Longitude, "tipoTrama",
	"tecnologiaMotor", "tramaRetransmitida", "tipoFreno",
}

type entry struct {
	code     string
	kind     Kind
	specific []string
}

// entries is kept in documentation order: periodic reports, then events and alarms by number.
var entries = []entry{
	{"P20", Periodic, []string{"velocidadVehiculo", "aceleracionVehiculo"}},
	{"P60", Periodic, []string{"temperaturaMotor", "presionAceiteMotor", "velocidadVehiculo", "aceleracionVehiculo",
		"revolucionesMotor", "estadoDesgasteFrenos", "kilometrosOdometro", "consumoCombustible",
		"nivelTanqueCombustible", "consumoEnergia", "regeneracionEnergia", "nivelRestanteEnergia",
		"porcentajeEnergiaGenerada", "temperaturaSts", "usoCpuSts", "memRamSts", "memDiscoSts",
		"temperaturaBaterias", "sentidoMarcha"}},

	{"EV1", Event, []string{EventCode, "peso", "temperaturaCabina", "estimacionOcupacionSuben",
		"estimacionOcupacionBajan", "estimacionOcupacionAbordo"}},
	{"EV2", Event, []string{EventCode, "estadoAperturaCierrePuertas"}},
	{"EV6", Event, []string{EventCode}},
	{"EV7", Event, []string{EventCode}},
	{"EV8", Event, []string{EventCode}},
	{"EV12", Event, []string{EventCode}},
	{"EV13", Event, []string{EventCode}},
	{"EV14", Event, []string{EventCode}},
	{"EV15", Event, []string{EventCode}},
	{"EV16", Event, []string{EventCode}},
	{"EV17", Event, []string{EventCode}},
	{"EV18", Event, []string{EventCode}},
	{"EV19", Event, []string{EventCode, "codigoComportamientoAnomalo"}},
	{"EV20", Event, []string{EventCode, "porcentajeCargaBaterias"}},
	{"EV21", Event, []string{EventCode, "porcentajeCargaBaterias"}},

	{"ALA1", Alarm, []string{AlarmCode, "nivelAlarma", "aceleracionVehiculo"}},
	{"ALA2", Alarm, []string{AlarmCode, "nivelAlarma", "aceleracionVehiculo"}},
	{"ALA3", Alarm, []string{AlarmCode, "nivelAlarma", "velocidadVehiculo"}},
	{"ALA5", Alarm, []string{AlarmCode, "nivelAlarma", "codigoCamara"}},
	{"ALA8", Alarm, []string{AlarmCode, "nivelAlarma", "estadoCinturonSeguridad"}},
	{"ALA9", Alarm, []string{AlarmCode, "nivelAlarma", "estadoInfoEntretenimiento"}},
	{"ALA10", Alarm, []string{AlarmCode, "nivelAlarma", "estadoDesgasteFrenos"}},
}

// sentinelNumeric lists the operational fields defaulting to -1 when absent,
// so "not reported" can be told apart from a measured zero.
var sentinelNumeric = []string{
	"consumoCombustible", "nivelTanqueCombustible", "temperaturaMotor", "presionAceiteMotor",
	"revolucionesMotor", "estadoDesgasteFrenos", "kilometrosOdometro",
}

// Registry is the immutable set of known message types.
// It is safe for concurrent use.
type Registry struct {
	codes   []string
	schemas map[string][]string
	kinds   map[string]Kind
}

// New builds the registry. It is meant to be called once at start up and passed to every component.
func New() *Registry {
	r := &Registry{
		codes:   make([]string, 0, len(entries)),
		schemas: make(map[string][]string, len(entries)),
		kinds:   make(map[string]Kind, len(entries)),
	}
	for _, e := range entries {
		r.codes = append(r.codes, e.code)
		r.schemas[e.code] = slices.Concat(envelope, e.specific)
		r.kinds[e.code] = e.kind
	}
	return r
}

// SchemaFor returns the ordered columns of the table for code: the envelope followed by the type specific attributes.
// The second value is false when code is not registered.
// Callers own the returned slice.
func (r *Registry) SchemaFor(code string) ([]string, bool) {
	s, ok := r.schemas[code]
	if !ok {
		return nil, false
	}
	return slices.Clone(s), true
}

// Codes returns every registered code in documentation order.
func (r *Registry) Codes() []string {
	return slices.Clone(r.codes)
}

// Envelope returns the attributes shared by every message type.
func (r *Registry) Envelope() []string {
	return slices.Clone(envelope)
}

// Kind returns the family of code, or Unknown if code is not registered.
func (r *Registry) Kind(code string) Kind {
	return r.kinds[code]
}

// IsTimestamp reports whether attr holds a timestamp in the source layout.
func IsTimestamp(attr string) bool {
	return attr == ReadTime || attr == SendTime
}

// IsLocation reports whether attr is read from the nested location object.
func IsLocation(attr string) bool {
	return attr == Latitude || attr == Longitude
}

// IsSentinelNumeric reports whether attr defaults to the sentinel value when absent.
func IsSentinelNumeric(attr string) bool {
	return slices.Contains(sentinelNumeric, attr)
}

// KindOf guesses the family of an arbitrary code from its prefix.
// Unlike Registry.Kind it does not require the code to be registered, which helps diagnostics.
func KindOf(code string) Kind {
	switch {
	case strings.HasPrefix(code, "ALA"):
		return Alarm
	case strings.HasPrefix(code, "EV"):
		return Event
	case strings.HasPrefix(code, "P"):
		return Periodic
	default:
		return Unknown
	}
}
