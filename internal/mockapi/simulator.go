package mockapi

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// Level is a triage level.
type Level string

const (
	Verde    Level = "verde"
	Amarelo  Level = "amarelo"
	Vermelho Level = "vermelho"
)

// Levels lists the triage levels from most to least urgent.
var Levels = []Level{Vermelho, Amarelo, Verde}

// priority orders levels; lower is served first.
func (l Level) priority() int {
	switch l {
	case Vermelho:
		return 0
	case Amarelo:
		return 1
	case Verde:
		return 2
	default:
		return 99
	}
}

// Valid reports whether l is a known triage level.
func (l Level) Valid() bool {
	return l.priority() < 99
}

var (
	defaultServiceTimes = map[Level]time.Duration{
		Vermelho: 8 * time.Second,
		Amarelo:  5 * time.Second,
		Verde:    3 * time.Second,
	}
	defaultTimeouts = map[Level]time.Duration{
		Vermelho: 60 * time.Second,
		Amarelo:  45 * time.Second,
		Verde:    30 * time.Second,
	}
)

type patient struct {
	pid     int
	level   Level
	arrived time.Time
}

type doctor struct {
	id      string
	room    int
	patient *patient
	until   time.Time
}

// Simulator is an in-memory emergency department. It is safe for concurrent
// use.
type Simulator struct {
	mu sync.Mutex

	serviceTimes map[Level]time.Duration
	timeouts     map[Level]time.Duration
	logger       *slog.Logger
	rng          *rand.Rand

	queues   [][]*patient
	doctors  []*doctor
	nextPID  int
	nextRoom int
	now      time.Time

	served    int
	abandoned int
}

// Option configures a [Simulator].
type Option func(*Simulator)

// WithServiceTime sets how long a doctor spends on a patient of the level.
func WithServiceTime(level Level, d time.Duration) Option {
	return func(s *Simulator) {
		s.serviceTimes[level] = d
	}
}

// WithTimeout sets how long a patient of the level waits before giving up.
func WithTimeout(level Level, d time.Duration) Option {
	return func(s *Simulator) {
		s.timeouts[level] = d
	}
}

// WithLogger sets the logger for patient events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithSeed seeds the random arrivals of [Simulator.Run].
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a simulator with the given number of rooms and doctors per
// room. Both are clamped to at least 1.
func New(rooms, doctorsPerRoom int, opts ...Option) *Simulator {
	rooms = max(rooms, 1)
	doctorsPerRoom = max(doctorsPerRoom, 1)

	s := &Simulator{
		serviceTimes: make(map[Level]time.Duration, len(defaultServiceTimes)),
		timeouts:     make(map[Level]time.Duration, len(defaultTimeouts)),
		logger:       slog.Default(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		queues:       make([][]*patient, rooms),
	}
	for l, d := range defaultServiceTimes {
		s.serviceTimes[l] = d
	}
	for l, d := range defaultTimeouts {
		s.timeouts[l] = d
	}
	for _, opt := range opts {
		opt(s)
	}

	for room := 0; room < rooms; room++ {
		for m := 1; m <= doctorsPerRoom; m++ {
			s.doctors = append(s.doctors, &doctor{
				id:   fmt.Sprintf("%d-%d", room, m),
				room: room,
			})
		}
	}
	return s
}

// Admit queues a new patient at time at, assigning rooms round-robin.
// It returns the patient id.
func (s *Simulator) Admit(level Level, at time.Time) (int, error) {
	if !level.Valid() {
		return 0, fmt.Errorf("unknown triage level %q", level)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &patient{pid: s.nextPID, level: level, arrived: at}
	s.nextPID++

	room := s.nextRoom
	s.nextRoom = (s.nextRoom + 1) % len(s.queues)
	s.queues[room] = append(s.queues[room], p)

	s.logger.Debug("patient admitted", "pid", p.pid, "level", string(level), "room", room)
	return p.pid, nil
}

// Advance moves the simulation to now: finished consultations free their
// doctor, patients past their timeout give up, and free doctors take the
// next patient of their room. Advancing backwards is a no-op.
func (s *Simulator) Advance(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Before(s.now) {
		return
	}
	s.now = now

	for _, d := range s.doctors {
		if d.patient != nil && !d.until.After(now) {
			s.logger.Debug("patient served", "pid", d.patient.pid, "doctor", d.id)
			d.patient = nil
			s.served++
		}
	}

	for room, q := range s.queues {
		kept := q[:0]
		for _, p := range q {
			if now.Sub(p.arrived) > s.timeouts[p.level] {
				s.logger.Debug("patient gave up", "pid", p.pid, "level", string(p.level), "room", room)
				s.abandoned++
				continue
			}
			kept = append(kept, p)
		}
		s.queues[room] = kept
	}

	for _, d := range s.doctors {
		if d.patient != nil {
			continue
		}
		p := s.pop(d.room)
		if p == nil {
			continue
		}
		d.patient = p
		d.until = now.Add(s.serviceTimes[p.level])
		s.logger.Debug("consultation started", "pid", p.pid, "doctor", d.id,
			"waited_ms", now.Sub(p.arrived).Milliseconds())
	}
}

// pop removes the most urgent, longest waiting patient of a room.
func (s *Simulator) pop(room int) *patient {
	q := s.queues[room]
	if len(q) == 0 {
		return nil
	}
	best := 0
	for i, p := range q {
		if p.level.priority() < q[best].level.priority() {
			best = i
		}
	}
	p := q[best]
	s.queues[room] = append(q[:best], q[best+1:]...)
	return p
}

// Queues reports the number of waiting patients per level.
func (s *Simulator) Queues() QueuesResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out QueuesResponse
	for _, q := range s.queues {
		for _, p := range q {
			switch p.level {
			case Verde:
				out.Verde++
			case Amarelo:
				out.Amarelo++
			case Vermelho:
				out.Vermelho++
			}
		}
	}
	return out
}

// Stats reports completion counts. Total counts every admitted patient,
// including those currently being seen.
func (s *Simulator) Stats() StatsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	waiting := 0
	for _, q := range s.queues {
		waiting += len(q)
	}
	return StatsResponse{
		Atendidos:    s.served,
		Desistencias: s.abandoned,
		Esperando:    waiting,
		Total:        s.nextPID,
	}
}

// Doctors reports every doctor, room by room, with the aggregate counts.
func (s *Simulator) Doctors() DoctorsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := DoctorsResponse{Medicos: make([]DoctorStatus, 0, len(s.doctors))}
	for _, d := range s.doctors {
		st := DoctorStatus{ID: d.id, Ocupado: d.patient != nil}
		if st.Ocupado {
			room := strconv.Itoa(d.room)
			st.Sala = &room
			out.Ocupados++
		} else {
			out.Livres++
		}
		out.Medicos = append(out.Medicos, st)
	}
	out.Totais = len(out.Medicos)
	return out
}

// randomLevel picks a level; callers hold s.mu.
func (s *Simulator) randomLevel() Level {
	return Levels[s.rng.Intn(len(Levels))]
}
