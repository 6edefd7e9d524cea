// Package mockapi simulates an emergency department triage backend.
//
// A [Simulator] models rooms staffed by doctors. Patients are admitted with a
// triage level and queue in their room; free doctors take the most urgent
// patient first (vermelho, then amarelo, then verde, first come first served
// within a level), stay busy for a level-dependent service time, and patients
// who wait longer than their level's timeout give up.
//
// Time only moves when [Simulator.Advance] is called, which keeps tests
// deterministic. [Simulator.Handler] serves the three feeds the dashboard
// polls and advances the simulation to the request time first.
package mockapi
