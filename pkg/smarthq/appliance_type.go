package smarthq

import "strings"

type ApplianceType uint8

const (
	ApplianceTypeWaterHeater            ApplianceType = 0x00
	ApplianceTypeDryer                  ApplianceType = 0x01
	ApplianceTypeWasher                 ApplianceType = 0x02
	ApplianceTypeFridge                 ApplianceType = 0x03
	ApplianceTypeMicrowave              ApplianceType = 0x04
	ApplianceTypeAdvantium              ApplianceType = 0x05
	ApplianceTypeDishwasher             ApplianceType = 0x06
	ApplianceTypeOven                   ApplianceType = 0x07
	ApplianceTypeElectricRange          ApplianceType = 0x08
	ApplianceTypeGasRange               ApplianceType = 0x09
	ApplianceTypeAirConditioner         ApplianceType = 0x0a
	ApplianceTypeElectricCooktop        ApplianceType = 0x0b
	ApplianceTypePizzaOven              ApplianceType = 0x0c
	ApplianceTypeGasCooktop             ApplianceType = 0x0d
	ApplianceTypeSplitAirConditioner    ApplianceType = 0x0e
	ApplianceTypeHood                   ApplianceType = 0x0f
	ApplianceTypePoeWaterFilter         ApplianceType = 0x10
	ApplianceTypeCombinationWasherDryer ApplianceType = 0x11
	ApplianceTypeZoneline               ApplianceType = 0x12
	ApplianceTypeDehumidifier           ApplianceType = 0x13
	ApplianceTypeWaterSoftener          ApplianceType = 0x14
	ApplianceTypeBeverageCenter         ApplianceType = 0x15
	ApplianceTypeOpalIceMaker           ApplianceType = 0x16
	ApplianceTypeCafeCoffeeMaker        ApplianceType = 0x17
	ApplianceTypePortableAirConditioner ApplianceType = 0x18
	ApplianceTypeBuiltInAirConditioner  ApplianceType = 0x19
	ApplianceTypeEspressoMaker          ApplianceType = 0x1a
	ApplianceTypeDualDishwasher         ApplianceType = 0x1b
	ApplianceTypeUnknown                ApplianceType = 0xff
)

var applianceTypeNames = map[ApplianceType]string{
	ApplianceTypeWaterHeater:            "WATER_HEATER",
	ApplianceTypeDryer:                  "DRYER",
	ApplianceTypeWasher:                 "WASHER",
	ApplianceTypeFridge:                 "FRIDGE",
	ApplianceTypeMicrowave:              "MICROWAVE",
	ApplianceTypeAdvantium:              "ADVANTIUM",
	ApplianceTypeDishwasher:             "DISH_WASHER",
	ApplianceTypeOven:                   "OVEN",
	ApplianceTypeElectricRange:          "ELECTRIC_RANGE",
	ApplianceTypeGasRange:               "GAS_RANGE",
	ApplianceTypeAirConditioner:         "AIR_CONDITIONER",
	ApplianceTypeElectricCooktop:        "ELECTRIC_COOKTOP",
	ApplianceTypePizzaOven:              "PIZZA_OVEN",
	ApplianceTypeGasCooktop:             "GAS_COOKTOP",
	ApplianceTypeSplitAirConditioner:    "SPLIT_AIR_CONDITIONER",
	ApplianceTypeHood:                   "HOOD",
	ApplianceTypePoeWaterFilter:         "POE_WATER_FILTER",
	ApplianceTypeCombinationWasherDryer: "COMBINATION_WASHER_DRYER",
	ApplianceTypeZoneline:               "ZONELINE",
	ApplianceTypeDehumidifier:           "DEHUMIDIFIER",
	ApplianceTypeWaterSoftener:          "WATER_SOFTENER",
	ApplianceTypeBeverageCenter:         "BEVERAGE_CENTER",
	ApplianceTypeOpalIceMaker:           "OPAL_ICE_MAKER",
	ApplianceTypeCafeCoffeeMaker:        "CAFE_COFFEE_MAKER",
	ApplianceTypePortableAirConditioner: "PORTABLE_AIR_CONDITIONER",
	ApplianceTypeBuiltInAirConditioner:  "BUILT_IN_AIR_CONDITIONER",
	ApplianceTypeEspressoMaker:          "ESPRESSO_MAKER",
	ApplianceTypeDualDishwasher:         "DUAL_DISH_WASHER",
}

func (t ApplianceType) String() string {
	if name, ok := applianceTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Title renders the type for display, e.g. "Dish Washer".
func (t ApplianceType) Title() string {
	words := strings.Split(strings.ToLower(t.String()), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseApplianceType decodes the raw value of ErdApplianceType.
func ParseApplianceType(raw string) ApplianceType {
	v, err := DecodeUint(raw)
	if err != nil || v > 0xff {
		return ApplianceTypeUnknown
	}
	t := ApplianceType(v)
	if _, ok := applianceTypeNames[t]; !ok {
		return ApplianceTypeUnknown
	}
	return t
}
