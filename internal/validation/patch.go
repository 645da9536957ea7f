package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cactilog/internal/model"
)

// Patch payloads follow the create rules with every field optional.  A
// supplied required field still has to carry a value.

func plantPatchRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.PlantPatch)
	requireIfSet(sl, p.Type, "type", "Type")
	requireIfSet(sl, p.Genus, "genus", "Genus")
	requireIfSet(sl, p.IsPublic, "isPublic", "IsPublic")
	oneOfIfSet(sl, p.Type, "type", "Type", model.PlantTypeCactus, model.PlantTypeSucculent)
	oneOfIfSet(sl, p.IsPublic, "isPublic", "IsPublic", model.VisibilityPublic, model.VisibilityPrivate)
}

func growthPatchRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.GrowthRecordPatch)
	requireIfSet(sl, p.Date, "date", "Date")
	if p.Date.Set && !p.Date.Null {
		if _, err := model.ParseDate(p.Date.Value); err != nil {
			sl.ReportError(p.Date.Value, "date", "Date", "calendardate", "")
		}
	}
	if p.HeightInches.Set && !p.HeightInches.Null {
		measurementRules(sl, p.HeightInches.Value, "heightInches", "HeightInches")
	}
	if p.WidthInches.Set && !p.WidthInches.Null {
		measurementRules(sl, p.WidthInches.Value, "widthInches", "WidthInches")
	}
	if p.WeightOz.Set && !p.WeightOz.Null {
		measurementRules(sl, p.WeightOz.Value, "weightOz", "WeightOz")
	}
}

func seedPatchRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.SeedPatch)
	requireIfSet(sl, p.Genus, "genus", "Genus")
	if p.Quantity.Set && !p.Quantity.Null && p.Quantity.Value < 0 {
		sl.ReportError(p.Quantity.Value, "quantity", "Quantity", "gte", "0")
	}
}

func requireIfSet(sl validator.StructLevel, o model.Optional[string], name, structName string) {
	if o.Set && (o.Null || o.Value == "") {
		sl.ReportError(o.Value, name, structName, "required", "")
	}
}

func oneOfIfSet(sl validator.StructLevel, o model.Optional[string], name, structName string, allowed ...string) {
	if !o.Set || o.Null || o.Value == "" {
		return
	}
	for _, a := range allowed {
		if o.Value == a {
			return
		}
	}
	param := ""
	for i, a := range allowed {
		if i > 0 {
			param += " "
		}
		param += a
	}
	sl.ReportError(o.Value, name, structName, "oneof", param)
}

// Measurements live in DECIMAL(8,2) columns, so anything outside
// [0, 999999.99] or finer than hundredths cannot be stored.
var maxMeasurement = decimal.RequireFromString("999999.99")

func growthInputRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(model.GrowthRecordInput)
	measurementRules(sl, in.HeightInches, "heightInches", "HeightInches")
	measurementRules(sl, in.WidthInches, "widthInches", "WidthInches")
	measurementRules(sl, in.WeightOz, "weightOz", "WeightOz")
}

func measurementRules(sl validator.StructLevel, m model.Measurement, name, structName string) {
	if !m.Valid {
		return
	}
	d := m.Decimal
	switch {
	case d.IsNegative():
		sl.ReportError(d.String(), name, structName, "gte", "0")
	case d.GreaterThan(maxMeasurement):
		sl.ReportError(d.String(), name, structName, "lte", maxMeasurement.String())
	case !d.Equal(d.Round(2)):
		sl.ReportError(d.String(), name, structName, "maxscale", "2")
	}
}
