package triageboard

import (
	"fmt"

	"github.com/jpalmerr/triageboard/render"
)

// Mount points the dashboard page exposes.
const (
	MountQueues      = "filas-chart"
	MountCompletion  = "taxa-chart"
	MountDoctors     = "medicos-chart"
	MountDoctorTable = "tabela-medicos"
)

// Mounts lists every mount point.
var Mounts = []string{MountQueues, MountCompletion, MountDoctors, MountDoctorTable}

// DoctorTableColumns are the column headers of the doctors table.
var DoctorTableColumns = []string{"ID", "Sala", "Estado"}

// QueueChart builds the column chart of waiting patients per triage bucket.
// The data order is always verde, amarelo, vermelho.
func QueueChart(q QueueCounts) render.Chart {
	return render.Chart{
		Type:       render.Column,
		Title:      "Filas de Espera",
		Categories: []string{"Verde", "Amarelo", "Vermelho"},
		Series: []render.Series{
			{Name: "Pacientes", Data: render.Counts(q.Verde, q.Amarelo, q.Vermelho)},
		},
	}
}

// CompletionChart builds the pie of served, abandoned and waiting patients.
func CompletionChart(s CompletionStats) render.Chart {
	return render.NewPie("Taxa de Conclusão", "Pacientes",
		render.Slice{Name: "Atendidos", Value: float64(s.Atendidos)},
		render.Slice{Name: "Desistências", Value: float64(s.Desistencias)},
		render.Slice{Name: "Esperando", Value: float64(s.Esperando)},
	)
}

// DoctorChart builds the horizontal bar chart of free and occupied doctors.
func DoctorChart(s DoctorSummary) render.Chart {
	return render.Chart{
		Type:       render.Bar,
		Title:      fmt.Sprintf("Médicos (total %d)", s.Total),
		Categories: []string{"Médicos"},
		Series: []render.Series{
			{Name: "Livres", Data: render.Counts(s.Free)},
			{Name: "Ocupados", Data: render.Counts(s.Occupied)},
		},
	}
}

// DoctorTable builds one row per doctor in input order.
func DoctorTable(doctors []Doctor) render.Table {
	rows := make([][]string, 0, len(doctors))
	for _, d := range doctors {
		rows = append(rows, []string{string(d.ID), d.RoomLabel(), d.StateLabel()})
	}
	return render.Table{
		Columns: append([]string(nil), DoctorTableColumns...),
		Rows:    rows,
	}
}

func renderQueues(p render.Port, q QueueCounts) error {
	return p.RenderColumnChart(MountQueues, QueueChart(q))
}

func renderCompletion(p render.Port, s CompletionStats) error {
	return p.RenderPieChart(MountCompletion, CompletionChart(s))
}

func renderDoctorChart(p render.Port, s DoctorSummary) error {
	return p.RenderBarChart(MountDoctors, DoctorChart(s))
}

func renderDoctorTable(p render.Port, doctors []Doctor) error {
	return p.RenderTable(MountDoctorTable, DoctorTable(doctors))
}
