package tools

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestArgs_OptionalNumber(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    float64
		wantOK  bool
		wantErr bool
	}{
		{name: "absent", value: nil},
		{name: "float", value: 90.0, want: 90, wantOK: true},
		{name: "int", value: 45, want: 45, wantOK: true},
		{name: "json number", value: json.Number("120"), want: 120, wantOK: true},
		{name: "numeric string", value: " 60 ", want: 60, wantOK: true},
		{name: "blank string", value: ""},
		{name: "word", value: "sixty", wantErr: true},
		{name: "bool", value: true, wantErr: true},
		{name: "nan", value: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := Args{}
			if tt.value != nil {
				args["n"] = tt.value
			}
			got, ok, err := args.OptionalNumber("n")
			if (err != nil) != tt.wantErr {
				t.Fatalf("OptionalNumber() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("OptionalNumber() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestArgs_String(t *testing.T) {
	args := Args{"name": "  Ann  ", "blank": " ", "num": 3.0}

	if got, err := args.String("name"); err != nil || got != "Ann" {
		t.Errorf(`String("name") = %q, %v`, got, err)
	}
	for _, field := range []string{"blank", "num", "missing"} {
		_, err := args.String(field)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Errorf("String(%q) error = %v, want a ValidationError for the field", field, err)
		}
	}
}

func TestArgs_Time(t *testing.T) {
	args := Args{
		"offset": "2025-01-03T11:00:00-08:00",
		"utc":    "2025-01-03T19:00:00.000Z",
		"wall":   "2025-01-03 11:00",
	}

	a, err := args.Time("offset")
	if err != nil {
		t.Fatalf("Time(offset) error = %v", err)
	}
	b, err := args.Time("utc")
	if err != nil {
		t.Fatalf("Time(utc) error = %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("offset %v and utc %v should be the same instant", a, b)
	}
	if _, err := args.Time("wall"); err == nil {
		t.Error("Time(wall) should reject a timestamp without offset")
	}
	if _, err := args.Time("missing"); err == nil {
		t.Error("Time(missing) should fail")
	}
}

func TestArgs_Object(t *testing.T) {
	args := Args{"details": map[string]any{"name": "Ann"}, "flat": "x"}

	details, err := args.Object("details")
	if err != nil {
		t.Fatalf("Object() error = %v", err)
	}
	if details["name"] != "Ann" {
		t.Errorf("details = %v", details)
	}
	if _, err := args.Object("flat"); err == nil {
		t.Error("Object(flat) should fail")
	}
}

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{name: "absent", raw: ""},
		{name: "null", raw: " null "},
		{name: "empty object", raw: `{}`},
		{name: "object", raw: `{"query":"hours","durationMins":60}`, wantLen: 2},
		{name: "string", raw: `"str"`, wantErr: true},
		{name: "array", raw: `[{"query":"hours"}]`, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeArguments(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeArguments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != "arguments" {
					t.Errorf("error = %v, want ValidationError on arguments", err)
				}
				return
			}
			if len(got) != tt.wantLen {
				t.Errorf("DecodeArguments() = %v, want %d entries", got, tt.wantLen)
			}
		})
	}
}
