package smarthq

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErdCode identifies a remote appliance property ("0x0001" style).
type ErdCode string

// common
const (
	ErdModelNumber         ErdCode = "0x0001"
	ErdSerialNumber        ErdCode = "0x0002"
	ErdClockTime           ErdCode = "0x0005"
	ErdClockFormat         ErdCode = "0x0006"
	ErdTemperatureUnit     ErdCode = "0x0007"
	ErdApplianceType       ErdCode = "0x0008"
	ErdSabbathMode         ErdCode = "0x0009"
	ErdSoundLevel          ErdCode = "0x000a"
	ErdUserInterfaceLocked ErdCode = "0x0035"
	ErdWifiModuleSwVersion ErdCode = "0x0100"
)

// kitchen
const (
	ErdUpperOvenCookMode           ErdCode = "0x5100"
	ErdUpperOvenDisplayTemperature ErdCode = "0x5109"
	ErdUpperOvenRemoteEnabled      ErdCode = "0x510b"
	ErdUpperOvenKitchenTimer       ErdCode = "0x5110"
	ErdUpperOvenLightLevel         ErdCode = "0x5113"
	ErdCooktopStatus               ErdCode = "0x5120"
	ErdFridgeDoorStatus            ErdCode = "0x1016"
	ErdFridgeCurrentTemperature    ErdCode = "0x1004"
	ErdFridgeWaterFilterStatus     ErdCode = "0x1005"
	ErdFridgeTurboCoolStatus       ErdCode = "0x100f"
	ErdFridgeTurboFreezeStatus     ErdCode = "0x1010"
	ErdFridgeIceMakerControl       ErdCode = "0x1012"
	ErdDishwasherCycleState        ErdCode = "0x3001"
	ErdDishwasherOperatingMode     ErdCode = "0x3003"
	ErdDishwasherRinseAgent        ErdCode = "0x3004"
	ErdDishwasherTimeRemaining     ErdCode = "0x3037"
	ErdMicrowaveState              ErdCode = "0x5200"
	ErdHoodFanSpeed                ErdCode = "0x5b00"
	ErdHoodLightLevel              ErdCode = "0x5b01"
	ErdCcmIsBrewing                ErdCode = "0x8041"
	ErdCcmBrewStrength             ErdCode = "0x8042"
	ErdCcmPotPresent               ErdCode = "0x8048"
	ErdEspressoState               ErdCode = "0x8c00"
	ErdOimStatus                   ErdCode = "0x9201"
	ErdOimPowerStatus              ErdCode = "0x9202"
	ErdOimLightLevel               ErdCode = "0x9203"
)

// laundry
const (
	ErdLaundryMachineState  ErdCode = "0x2000"
	ErdLaundryCycle         ErdCode = "0x2001"
	ErdLaundryTimeRemaining ErdCode = "0x2003"
	ErdLaundryDoorStatus    ErdCode = "0x2006"
	ErdLaundryRemoteStatus  ErdCode = "0x2007"
)

// climate and water
const (
	ErdAcTargetTemperature  ErdCode = "0x7003"
	ErdAcFanSetting         ErdCode = "0x7a00"
	ErdAcOperationMode      ErdCode = "0x7a01"
	ErdAcAmbientTemperature ErdCode = "0x7a02"
	ErdAcPowerStatus        ErdCode = "0x7a0f"
	ErdDhumTargetHumidity   ErdCode = "0x7b00"
	ErdDhumCurrentHumidity  ErdCode = "0x7b01"
	ErdWhTargetTemperature  ErdCode = "0x4024"
	ErdWhMode               ErdCode = "0x4025"
	ErdWhTankTemperature    ErdCode = "0x4026"
	ErdWfnFilterPosition    ErdCode = "0x9101"
	ErdWfnLifeRemaining     ErdCode = "0x9102"
	ErdWfnFlowRate          ErdCode = "0x9104"
	ErdWsSaltLevel          ErdCode = "0x9a01"
	ErdWsShutoffPosition    ErdCode = "0x9a02"
)

var ErrInvalidErdValue = errors.New("invalid erd value")

// NormalizeErdCode lower-cases the hex digits and adds the 0x prefix when missing.
func NormalizeErdCode(code string) ErdCode {
	c := strings.ToLower(strings.TrimSpace(code))
	if !strings.HasPrefix(c, "0x") {
		c = "0x" + c
	}
	return ErdCode(c)
}

func decodeBytes(raw string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(raw), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidErdValue, raw)
	}
	return b, nil
}

// DecodeUint reads a big endian unsigned integer from a raw hex erd value.
func DecodeUint(raw string) (uint64, error) {
	b, err := decodeBytes(raw)
	if err != nil {
		return 0, err
	}
	if len(b) == 0 || len(b) > 8 {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidErdValue, len(b))
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

// DecodeInt16 reads a signed 16 bit value, used by temperatures.
func DecodeInt16(raw string) (int16, error) {
	v, err := DecodeUint(raw)
	if err != nil {
		return 0, err
	}
	if v > 0xffff {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidErdValue)
	}
	return int16(uint16(v)), nil
}

// DecodeBool is true for any non zero value.
func DecodeBool(raw string) (bool, error) {
	v, err := DecodeUint(raw)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// DecodeString decodes an ascii erd value, dropping trailing NULs and padding.
func DecodeString(raw string) (string, error) {
	b, err := decodeBytes(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00")), nil
}

// EncodeUint writes v as a big endian hex value of the given byte width.
func EncodeUint(v uint64, width int) string {
	if width <= 0 {
		width = 1
	}
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return hex.EncodeToString(b)
}

func EncodeBool(v bool) string {
	if v {
		return EncodeUint(1, 1)
	}
	return EncodeUint(0, 1)
}
