package yamlutil

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	var s sample
	err := Unmarshal([]byte("name: mega65\ncount: 3\n"), &s)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Name != "mega65" || s.Count != 3 {
		t.Errorf("got %+v, want {mega65 3}", s)
	}
}

func TestUnmarshalValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
	}{
		{name: "nil data", data: nil, dest: &sample{}, wantErr: ErrNilData},
		{name: "empty data", data: []byte{}, dest: &sample{}, wantErr: ErrNilData},
		{name: "nil destination", data: []byte("a: 1"), dest: nil, wantErr: ErrNilDestination},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := Unmarshal(tt.data, tt.dest); !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnmarshalInputTooLarge(t *testing.T) {
	t.Parallel()

	data := []byte("name: " + strings.Repeat("x", MaxInputSize))
	var s sample
	if err := Unmarshal(data, &s); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("Unmarshal() error = %v, want ErrInputTooLarge", err)
	}
}

func TestUnmarshalStrictRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	var s sample
	err := UnmarshalStrict([]byte("name: x\nbogus: 1\n"), &s)
	if err == nil {
		t.Fatal("UnmarshalStrict() error = nil, want unknown field error")
	}
}

func TestUnmarshalStrictAcceptsKnownFields(t *testing.T) {
	t.Parallel()

	var s sample
	if err := UnmarshalStrict([]byte("name: x\ncount: 1\n"), &s); err != nil {
		t.Errorf("UnmarshalStrict() error = %v", err)
	}
}
