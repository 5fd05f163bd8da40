// Package knx is the field-bus transport collaborator: a minimal knxd
// client plus the telegram and datapoint codecs the daemon needs.
//
// The client speaks knxd's group socket protocol (EIB_OPEN_GROUPCON) over
// a unix or TCP socket, delivers decoded group telegrams to a single
// callback, and reconnects with backoff when the connection drops.
//
// Datapoint coverage is deliberately small — exactly the kinds the device
// implementations consume and emit:
//
//	DPT 1.x  boolean          (enable flags, inverter input/output)
//	DPT 5.001 percentage      (shutter height and slat position)
//	DPT 7.x  16-bit unsigned  (debounce delays in seconds)
//	DPT 9.x  16-bit float     (brightness, setpoint)
//
// Bus-level reliability (retries, acknowledgements) is out of scope;
// writes are fire-and-possibly-fail.
package knx
