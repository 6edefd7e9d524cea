package render

import (
	"errors"
	"fmt"
	"sync"
)

// Port is the capability set a rendering backend provides.
//
// Each call replaces the previous contents of the mount point. The Render*
// chart methods receive the chart with its Type already set by the caller;
// implementations may rely on it matching the method.
type Port interface {
	RenderColumnChart(mount string, c Chart) error
	RenderPieChart(mount string, c Chart) error
	RenderBarChart(mount string, c Chart) error
	RenderTable(mount string, t Table) error
}

// Multi returns a [Port] that forwards every call to each port in order.
// All ports are called even when one fails; the errors are joined.
func Multi(ports ...Port) Port {
	return multiPort(ports)
}

type multiPort []Port

func (m multiPort) RenderColumnChart(mount string, c Chart) error {
	return m.each(func(p Port) error { return p.RenderColumnChart(mount, c) })
}

func (m multiPort) RenderPieChart(mount string, c Chart) error {
	return m.each(func(p Port) error { return p.RenderPieChart(mount, c) })
}

func (m multiPort) RenderBarChart(mount string, c Chart) error {
	return m.each(func(p Port) error { return p.RenderBarChart(mount, c) })
}

func (m multiPort) RenderTable(mount string, t Table) error {
	return m.each(func(p Port) error { return p.RenderTable(mount, t) })
}

func (m multiPort) each(call func(Port) error) error {
	var errs []error
	for _, p := range m {
		if err := call(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder is an in-memory [Port] that keeps the latest chart or table per
// mount point. The zero value is ready to use and safe for concurrent use.
//
// If Mounts is non-empty, only those mount points are accepted and others
// fail with [ErrUnknownMount].
type Recorder struct {
	Mounts []string

	mu     sync.Mutex
	charts map[string]Chart
	tables map[string]Table
	calls  int
}

func (r *Recorder) RenderColumnChart(mount string, c Chart) error {
	return r.putChart(mount, c)
}

func (r *Recorder) RenderPieChart(mount string, c Chart) error {
	return r.putChart(mount, c)
}

func (r *Recorder) RenderBarChart(mount string, c Chart) error {
	return r.putChart(mount, c)
}

func (r *Recorder) RenderTable(mount string, t Table) error {
	if err := r.check(mount); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tables == nil {
		r.tables = make(map[string]Table)
	}
	r.tables[mount] = t
	r.calls++
	return nil
}

// Chart returns the latest chart rendered into mount.
func (r *Recorder) Chart(mount string) (Chart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charts[mount]
	return c, ok
}

// Table returns the latest table rendered into mount.
func (r *Recorder) Table(mount string) (Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[mount]
	return t, ok
}

// Calls returns the number of successful render calls.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *Recorder) putChart(mount string, c Chart) error {
	if err := r.check(mount); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.charts == nil {
		r.charts = make(map[string]Chart)
	}
	r.charts[mount] = c
	r.calls++
	return nil
}

func (r *Recorder) check(mount string) error {
	if len(r.Mounts) == 0 {
		return nil
	}
	for _, m := range r.Mounts {
		if m == mount {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownMount, mount)
}
