package smarthq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeErdValues(t *testing.T) {
	v, err := DecodeUint("0x01f4")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), v)

	temp, err := DecodeInt16("fff6")
	require.NoError(t, err)
	assert.Equal(t, int16(-10), temp)

	on, err := DecodeBool("01")
	require.NoError(t, err)
	assert.True(t, on)

	s, err := DecodeString("4142433132330000")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", s)

	_, err = DecodeUint("zz")
	assert.ErrorIs(t, err, ErrInvalidErdValue)
	_, err = DecodeUint("")
	assert.ErrorIs(t, err, ErrInvalidErdValue)
}

func TestEncodeErdValues(t *testing.T) {
	assert.Equal(t, "01f4", EncodeUint(500, 2))
	assert.Equal(t, "00", EncodeUint(256, 1))
	assert.Equal(t, "01", EncodeBool(true))
	assert.Equal(t, ErdCode("0x5109"), NormalizeErdCode("5109"))
	assert.Equal(t, ErdCode("0x510b"), NormalizeErdCode("0x510B"))
}

func TestApplianceType(t *testing.T) {
	assert.Equal(t, ApplianceTypeDishwasher, ParseApplianceType("06"))
	assert.Equal(t, ApplianceTypeUnknown, ParseApplianceType("7f"))
	assert.Equal(t, ApplianceTypeUnknown, ParseApplianceType("nope"))
	assert.Equal(t, "Dish Washer", ApplianceTypeDishwasher.Title())
	assert.Equal(t, "Unknown", ApplianceTypeUnknown.Title())
}

func TestApplianceUpdateReturnsChanges(t *testing.T) {
	a := NewAppliance("aa:bb")
	assert.Equal(t, "AA:BB", a.MacAddr())
	assert.Equal(t, ApplianceTypeUnknown, a.ApplianceType())

	changed := a.UpdateErdValues(map[ErdCode]string{ErdApplianceType: "03", ErdSabbathMode: "00"})
	assert.Len(t, changed, 2)
	assert.Equal(t, ApplianceTypeFridge, a.ApplianceType())

	changed = a.UpdateErdValues(map[ErdCode]string{ErdApplianceType: "03", ErdSabbathMode: "01"})
	assert.Equal(t, map[ErdCode]string{ErdSabbathMode: "01"}, changed)
	assert.Equal(t, []ErdCode{ErdApplianceType, ErdSabbathMode}, a.KnownProperties())
}
