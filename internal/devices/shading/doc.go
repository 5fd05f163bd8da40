// Package shading implements the automatic-shading automaton.
//
// One Device instance drives the venetian blind of a single facade. A
// memoized sun-range search decides when the sun can hit the window at
// all, two debounce timers turn the noisy outdoor brightness reading
// into a stable sun-active signal, and a three-state machine (idle,
// shading ready, shading) commands the actuator through a
// write-minimising cache. A separate day/night one-shot opens the shade
// at dawn and closes it at dusk regardless of shading state.
//
// Time only ever advances the automaton through the scheduler and
// inbound sensor telegrams; there is no polling.
package shading
