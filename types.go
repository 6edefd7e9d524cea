package triageboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// QueueCounts is the number of waiting patients per triage bucket, as served
// by the queues feed.
type QueueCounts struct {
	Verde    int `json:"verde"`
	Amarelo  int `json:"amarelo"`
	Vermelho int `json:"vermelho"`
}

// CompletionStats counts served, abandoned and waiting patients.
//
// Total is sent by some backends and carried through, but the completion
// chart only uses the three parts.
type CompletionStats struct {
	Atendidos    int  `json:"atendidos"`
	Desistencias int  `json:"desistencias"`
	Esperando    int  `json:"esperando"`
	Total        *int `json:"total,omitempty"`
}

// DoctorID identifies a doctor. The backend sends either integers or
// strings such as "2-1" (room-doctor); both are kept in textual form.
// Integral numbers are normalised, so 1, 1.0 and 1e0 all become "1".
type DoctorID string

// UnmarshalJSON accepts a JSON string or number.
func (id *DoctorID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = DoctorID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("doctor id must be a string or number: %w", err)
	}
	*id = DoctorID(numberText(n))
	return nil
}

// numberText formats n without a fraction or exponent when it is integral.
func numberText(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// Doctor is one entry of the doctors feed.
type Doctor struct {
	ID DoctorID `json:"id"`

	// Room is nil when the backend omits it or sends null.
	Room *string `json:"sala"`

	Occupied bool `json:"ocupado"`
}

// RoomLabel returns the room, or "-" when there is none.
func (d Doctor) RoomLabel() string {
	if d.Room == nil || *d.Room == "" {
		return "-"
	}
	return *d.Room
}

// StateLabel returns "Ocupado" or "Livre".
func (d Doctor) StateLabel() string {
	if d.Occupied {
		return "Ocupado"
	}
	return "Livre"
}

// ErrDoctorsMissing is returned when the doctors feed has no "medicos" list.
var ErrDoctorsMissing = errors.New(`doctors payload has no "medicos" list`)

// ErrSummaryMissing is returned when reported doctor counts are required but
// the backend did not send all of them.
var ErrSummaryMissing = errors.New("doctors payload is missing medicos_livres, medicos_ocupados or medicos_totais")

// DoctorRoster is the doctors feed payload.
//
// Some backends also report precomputed counts. They are only used when the
// dashboard is configured with [WithReportedDoctorSummary].
type DoctorRoster struct {
	Doctors  []Doctor `json:"medicos"`
	Free     *int     `json:"medicos_livres,omitempty"`
	Occupied *int     `json:"medicos_ocupados,omitempty"`
	Total    *int     `json:"medicos_totais,omitempty"`
}

// DoctorSummary is the free/occupied split shown in the doctors chart.
type DoctorSummary struct {
	Free     int `json:"free"`
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}

// Derive counts free and occupied doctors from the list.
// Free+Occupied always equals Total, which equals len(r.Doctors).
func (r DoctorRoster) Derive() DoctorSummary {
	var s DoctorSummary
	for _, d := range r.Doctors {
		if d.Occupied {
			s.Occupied++
		} else {
			s.Free++
		}
	}
	s.Total = len(r.Doctors)
	return s
}

// Reported returns the counts sent by the backend, or [ErrSummaryMissing]
// if any of them is absent.
func (r DoctorRoster) Reported() (DoctorSummary, error) {
	if r.Free == nil || r.Occupied == nil || r.Total == nil {
		return DoctorSummary{}, ErrSummaryMissing
	}
	return DoctorSummary{Free: *r.Free, Occupied: *r.Occupied, Total: *r.Total}, nil
}

// Summary returns the reported counts when reported is true, otherwise the
// derived ones.
func (r DoctorRoster) Summary(reported bool) (DoctorSummary, error) {
	if reported {
		return r.Reported()
	}
	return r.Derive(), nil
}

// Snapshot holds the three payloads of one successful tick.
type Snapshot struct {
	Queues    QueueCounts
	Stats     CompletionStats
	Doctors   DoctorRoster
	Summary   DoctorSummary
	FetchedAt time.Time
}

// TickResult describes the outcome of one tick and is passed to callbacks
// registered with [WithTickCallback].
type TickResult struct {
	// Snapshot is nil when the tick failed to fetch.
	Snapshot *Snapshot

	// Err is a [*TickError] when fetching failed, or the joined render
	// errors when some mount point rejected its view.
	Err error

	StartedAt time.Time
	Duration  time.Duration
}
