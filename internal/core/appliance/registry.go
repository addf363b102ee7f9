package appliance

import (
	"github.com/berfenger/smarthq2mqtt/pkg/smarthq"
)

type apiKind struct {
	name string
	defs []EntityDef
}

func kind(name string, defs ...[]EntityDef) apiKind {
	all := append([]EntityDef{}, commonDefs...)
	for _, d := range defs {
		all = append(all, d...)
	}
	return apiKind{name: name, defs: all}
}

var (
	genericKind      = kind("Appliance")
	ovenKind         = kind("Oven", ovenDefs)
	cooktopKind      = kind("Cooktop", cooktopDefs)
	fridgeKind       = kind("Fridge", fridgeDefs)
	beverageKind     = kind("Beverage Center", beverageDefs)
	dishwasherKind   = kind("Dishwasher", dishwasherDefs)
	microwaveKind    = kind("Microwave", microwaveDefs)
	hoodKind         = kind("Hood", hoodDefs)
	laundryKind      = kind("Laundry", laundryDefs)
	airConKind       = kind("Air Conditioner", airConDefs)
	dehumidifierKind = kind("Dehumidifier", dehumidifierDefs)
	waterHeaterKind  = kind("Water Heater", waterHeaterDefs)
	waterFilterKind  = kind("Water Filter", waterFilterDefs)
	waterSoftKind    = kind("Water Softener", waterSoftenerDefs)
	iceMakerKind     = kind("Ice Maker", iceMakerDefs)
	coffeeKind       = kind("Coffee Maker", coffeeDefs)
	espressoKind     = kind("Espresso Maker", espressoDefs)
)

var registry = map[smarthq.ApplianceType]apiKind{
	smarthq.ApplianceTypeOven:                   ovenKind,
	smarthq.ApplianceTypeElectricRange:          ovenKind,
	smarthq.ApplianceTypeGasRange:               ovenKind,
	smarthq.ApplianceTypePizzaOven:              ovenKind,
	smarthq.ApplianceTypeElectricCooktop:        cooktopKind,
	smarthq.ApplianceTypeGasCooktop:             cooktopKind,
	smarthq.ApplianceTypeFridge:                 fridgeKind,
	smarthq.ApplianceTypeBeverageCenter:         beverageKind,
	smarthq.ApplianceTypeDishwasher:             dishwasherKind,
	smarthq.ApplianceTypeDualDishwasher:         dishwasherKind,
	smarthq.ApplianceTypeMicrowave:              microwaveKind,
	smarthq.ApplianceTypeAdvantium:              microwaveKind,
	smarthq.ApplianceTypeHood:                   hoodKind,
	smarthq.ApplianceTypeWasher:                 laundryKind,
	smarthq.ApplianceTypeDryer:                  laundryKind,
	smarthq.ApplianceTypeCombinationWasherDryer: laundryKind,
	smarthq.ApplianceTypeAirConditioner:         airConKind,
	smarthq.ApplianceTypeSplitAirConditioner:    airConKind,
	smarthq.ApplianceTypePortableAirConditioner: airConKind,
	smarthq.ApplianceTypeBuiltInAirConditioner:  airConKind,
	smarthq.ApplianceTypeZoneline:               airConKind,
	smarthq.ApplianceTypeDehumidifier:           dehumidifierKind,
	smarthq.ApplianceTypeWaterHeater:            waterHeaterKind,
	smarthq.ApplianceTypePoeWaterFilter:         waterFilterKind,
	smarthq.ApplianceTypeWaterSoftener:          waterSoftKind,
	smarthq.ApplianceTypeOpalIceMaker:           iceMakerKind,
	smarthq.ApplianceTypeCafeCoffeeMaker:        coffeeKind,
	smarthq.ApplianceTypeEspressoMaker:          espressoKind,
}

// ApiFor builds the Api matching the appliance type, falling back to a generic
// one exposing the common entities.
func ApiFor(appliance *smarthq.Appliance, online func() bool) *Api {
	k, ok := registry[appliance.ApplianceType()]
	if !ok {
		k = genericKind
	}
	return newApi(k.name, k.defs, appliance, online)
}
