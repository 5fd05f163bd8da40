package inverter

import (
	"context"
	"errors"
	"testing"

	"github.com/shadowline/shadowline-core/internal/device"
	"github.com/shadowline/shadowline-core/internal/knx"
)

type busWrite struct {
	ga   knx.GroupAddress
	data []byte
}

type fakeBus struct {
	writes []busWrite
}

func (b *fakeBus) Send(_ context.Context, ga knx.GroupAddress, data []byte) error {
	b.writes = append(b.writes, busWrite{ga: ga, data: append([]byte(nil), data...)})
	return nil
}

func newTestInverter(t *testing.T) (*Device, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	out, err := knx.ParseGroupAddress("4/0/1")
	if err != nil {
		t.Fatalf("ParseGroupAddress: %v", err)
	}
	return New("window_contact_inv", out, device.Deps{Bus: bus}), bus
}

func TestInverterNegates(t *testing.T) {
	d, bus := newTestInverter(t)
	ctx := context.Background()

	tests := []struct {
		in   byte
		want byte
	}{
		{0x01, 0x00},
		{0x00, 0x01},
		{0x00, 0x01}, // repeats are forwarded, not deduplicated
	}

	for i, tt := range tests {
		tg := knx.Telegram{APCI: knx.APCIWrite, Data: []byte{tt.in}}
		if err := d.HandleSensor(ctx, RoleInput, tg); err != nil {
			t.Fatalf("HandleSensor #%d: %v", i, err)
		}
	}

	if len(bus.writes) != len(tests) {
		t.Fatalf("wrote %d telegrams, want %d", len(bus.writes), len(tests))
	}
	for i, tt := range tests {
		if got := bus.writes[i].data[0]; got != tt.want {
			t.Errorf("write #%d = %#02x, want %#02x", i, got, tt.want)
		}
	}
}

func TestInverterIgnoresReadFrames(t *testing.T) {
	d, bus := newTestInverter(t)

	tg := knx.Telegram{APCI: knx.APCIRead}
	if err := d.HandleSensor(context.Background(), RoleInput, tg); err != nil {
		t.Fatalf("HandleSensor: %v", err)
	}
	if len(bus.writes) != 0 {
		t.Errorf("read frame produced %d writes", len(bus.writes))
	}
}

func TestInverterUnknownRole(t *testing.T) {
	d, _ := newTestInverter(t)

	tg := knx.Telegram{APCI: knx.APCIWrite, Data: []byte{0x01}}
	if err := d.HandleSensor(context.Background(), "brightness", tg); !errors.Is(err, device.ErrUnknownSensor) {
		t.Errorf("unknown role error = %v, want ErrUnknownSensor", err)
	}
}
