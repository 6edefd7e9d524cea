package triageboard

import (
	"encoding/json"
	"fmt"

	"github.com/jpalmerr/triageboard/internal/store"
	"github.com/jpalmerr/triageboard/render"
)

// storePort is the [render.Port] that writes views into the dashboard's
// store, from where the server pushes them to browsers.
//
// Only the dashboard's mount points are accepted; every renderer is guarded
// the same way.
type storePort struct {
	store  store.Store
	mounts map[string]struct{}
}

func newStorePort(st store.Store) *storePort {
	mounts := make(map[string]struct{}, len(Mounts))
	for _, m := range Mounts {
		mounts[m] = struct{}{}
	}
	return &storePort{store: st, mounts: mounts}
}

func (p *storePort) RenderColumnChart(mount string, c render.Chart) error {
	return p.put(mount, string(render.Column), c)
}

func (p *storePort) RenderPieChart(mount string, c render.Chart) error {
	return p.put(mount, string(render.Pie), c)
}

func (p *storePort) RenderBarChart(mount string, c render.Chart) error {
	return p.put(mount, string(render.Bar), c)
}

func (p *storePort) RenderTable(mount string, t render.Table) error {
	return p.put(mount, "table", t)
}

func (p *storePort) put(mount, kind string, v any) error {
	if _, ok := p.mounts[mount]; !ok {
		return fmt.Errorf("%w: %q", render.ErrUnknownMount, mount)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s view for %s: %w", kind, mount, err)
	}
	p.store.Put(store.View{Mount: mount, Kind: kind, Payload: payload})
	return nil
}
