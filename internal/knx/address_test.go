package knx

import (
	"errors"
	"testing"
)

func TestParseGroupAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GroupAddress
		wantErr bool
	}{
		{"valid low", "0/0/0", GroupAddress{0, 0, 0}, false},
		{"valid typical", "1/2/3", GroupAddress{1, 2, 3}, false},
		{"valid max", "31/7/255", GroupAddress{31, 7, 255}, false},
		{"main too large", "32/0/0", GroupAddress{}, true},
		{"middle too large", "0/8/0", GroupAddress{}, true},
		{"sub too large", "0/0/256", GroupAddress{}, true},
		{"negative", "-1/0/0", GroupAddress{}, true},
		{"two levels", "1/2", GroupAddress{}, true},
		{"four levels", "1/2/3/4", GroupAddress{}, true},
		{"not numeric", "a/b/c", GroupAddress{}, true},
		{"empty", "", GroupAddress{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGroupAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGroupAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGroupAddress) {
					t.Errorf("error should wrap ErrInvalidGroupAddress, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseGroupAddress(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGroupAddressUint16RoundTrip(t *testing.T) {
	tests := []GroupAddress{
		{0, 0, 0},
		{1, 2, 3},
		{31, 7, 255},
		{15, 3, 128},
	}

	for _, ga := range tests {
		t.Run(ga.String(), func(t *testing.T) {
			if got := GroupAddressFromUint16(ga.ToUint16()); got != ga {
				t.Errorf("round trip = %v, want %v", got, ga)
			}
		})
	}
}

func TestGroupAddressString(t *testing.T) {
	ga := GroupAddress{Main: 2, Middle: 1, Sub: 4}
	if got := ga.String(); got != "2/1/4" {
		t.Errorf("String() = %q, want 2/1/4", got)
	}
}
