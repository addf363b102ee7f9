package appliance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

const (
	PAYLOAD_ON    = "on"
	PAYLOAD_OFF   = "off"
	PAYLOAD_PRESS = "PRESS"
)

var (
	ErrReadOnly       = errors.New("entity is read only")
	ErrInvalidPayload = errors.New("invalid command payload")
	ErrNoState        = errors.New("entity has no state")
)

// Formatter converts between raw erd values and entity states/commands.
type Formatter interface {
	Format(raw string) (string, error)
	Parse(payload string) (string, error)
}

type readOnly struct{}

func (readOnly) Parse(string) (string, error) {
	return "", ErrReadOnly
}

type StringFormat struct {
	readOnly
}

func (StringFormat) Format(raw string) (string, error) {
	return smarthq.DecodeString(raw)
}

// NumberFormat reads an integer erd of Width bytes, scaled for display.
type NumberFormat struct {
	Width    int
	Scale    float64
	Decimals int
	Signed   bool
	Writable bool
}

func (f NumberFormat) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

func (f NumberFormat) Format(raw string) (string, error) {
	var v float64
	if f.Signed {
		i, err := smarthq.DecodeInt16(raw)
		if err != nil {
			return "", err
		}
		v = float64(i)
	} else {
		u, err := smarthq.DecodeUint(raw)
		if err != nil {
			return "", err
		}
		v = float64(u)
	}
	return strconv.FormatFloat(v*f.scale(), 'f', f.Decimals, 64), nil
}

func (f NumberFormat) Parse(payload string) (string, error) {
	if !f.Writable {
		return "", ErrReadOnly
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}
	v := math.Round(n / f.scale())
	width := max(f.Width, 1)
	if f.Signed {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return "", fmt.Errorf("%w: %v out of range", ErrInvalidPayload, n)
		}
		return smarthq.EncodeUint(uint64(uint16(int16(v))), width), nil
	}
	if v < 0 || v >= math.Pow(2, float64(8*width)) {
		return "", fmt.Errorf("%w: %v out of range", ErrInvalidPayload, n)
	}
	return smarthq.EncodeUint(uint64(v), width), nil
}

type BoolFormat struct {
	Writable bool
}

func (BoolFormat) Format(raw string) (string, error) {
	on, err := smarthq.DecodeBool(raw)
	if err != nil {
		return "", err
	}
	if on {
		return PAYLOAD_ON, nil
	}
	return PAYLOAD_OFF, nil
}

func (f BoolFormat) Parse(payload string) (string, error) {
	if !f.Writable {
		return "", ErrReadOnly
	}
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case PAYLOAD_ON:
		return smarthq.EncodeBool(true), nil
	case PAYLOAD_OFF:
		return smarthq.EncodeBool(false), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
}

// EnumFormat maps integer erd values to option names.
type EnumFormat struct {
	Values   map[uint64]string
	Width    int
	Writable bool
}

func (f EnumFormat) Format(raw string) (string, error) {
	v, err := smarthq.DecodeUint(raw)
	if err != nil {
		return "", err
	}
	if name, ok := f.Values[v]; ok {
		return name, nil
	}
	return fmt.Sprintf("unknown_%d", v), nil
}

func (f EnumFormat) Parse(payload string) (string, error) {
	if !f.Writable {
		return "", ErrReadOnly
	}
	for v, name := range f.Values {
		if name == payload {
			return smarthq.EncodeUint(v, max(f.Width, 1)), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
}

// Options lists the names ordered by raw value.
func (f EnumFormat) Options() []string {
	keys := make([]uint64, 0, len(f.Values))
	for k := range f.Values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	options := make([]string, 0, len(keys))
	for _, k := range keys {
		options = append(options, f.Values[k])
	}
	return options
}

// ClockFormat reads a two byte hour/minute erd.
type ClockFormat struct {
	readOnly
}

func (ClockFormat) Format(raw string) (string, error) {
	v, err := smarthq.DecodeUint(raw)
	if err != nil {
		return "", err
	}
	hours, minutes := v>>8, v&0xff
	if hours > 23 || minutes > 59 {
		return "", fmt.Errorf("%w: clock %q", smarthq.ErrInvalidErdValue, raw)
	}
	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// VersionFormat reads a dotted version, one byte per component.
type VersionFormat struct {
	readOnly
}

func (VersionFormat) Format(raw string) (string, error) {
	if len(raw)%2 != 0 || len(raw) == 0 {
		return "", fmt.Errorf("%w: version %q", smarthq.ErrInvalidErdValue, raw)
	}
	parts := make([]string, 0, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		v, err := smarthq.DecodeUint(raw[i : i+2])
		if err != nil {
			return "", err
		}
		parts = append(parts, strconv.FormatUint(v, 10))
	}
	return strings.Join(parts, "."), nil
}

// PressFormat writes Value when pressed. Buttons have no state.
type PressFormat struct {
	Value string
}

func (PressFormat) Format(string) (string, error) {
	return "", ErrNoState
}

func (f PressFormat) Parse(payload string) (string, error) {
	if payload != PAYLOAD_PRESS {
		return "", fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}
	return f.Value, nil
}
