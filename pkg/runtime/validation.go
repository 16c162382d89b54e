package runtime

import (
	"k8s.io/apimachinery/pkg/util/validation/field"

	"modbridge/pkg/runtime/constant"
)

// ValidateDevice checks a device assembled from configuration. A failing
// device is dropped at load time, never at poll time.
func ValidateDevice(device *Device) field.ErrorList {
	var allErrs field.ErrorList
	if len(device.Name) == 0 {
		allErrs = append(allErrs, field.Required(field.NewPath("name"), ""))
	}
	if len(device.Port) == 0 {
		allErrs = append(allErrs, field.Required(field.NewPath("port"), ""))
	}
	if device.PollInterval <= 0 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("pollInterval"), device.PollInterval, "must be greater than zero"))
	}
	if len(device.Registers) == 0 {
		allErrs = append(allErrs, field.Required(field.NewPath("registers"), "a device without registers is dropped"))
	}

	tags := make(map[string]struct{}, len(device.Registers))
	for i, register := range device.Registers {
		p := field.NewPath("registers").Index(i)
		allErrs = append(allErrs, ValidateRegister(register, p)...)
		if _, exist := tags[register.Tag]; exist {
			allErrs = append(allErrs, field.Duplicate(p.Child("tag"), register.Tag))
		}
		tags[register.Tag] = struct{}{}
	}
	return allErrs
}

// ValidateRegister rejects word count and type mismatches at load time
// instead of defaulting them silently.
func ValidateRegister(register *Register, p *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if len(register.Tag) == 0 {
		allErrs = append(allErrs, field.Required(p.Child("tag"), ""))
	}
	if _, ok := constant.AccessKindToString[register.AccessKind]; !ok {
		allErrs = append(allErrs, field.NotSupported(p.Child("functionCode"), register.AccessKind, []string{"1", "2", "3", "4"}))
	}
	words, ok := constant.DataTypeWord[register.DataType]
	if !ok {
		allErrs = append(allErrs, field.Invalid(p.Child("dataType"), register.DataType, "unknown data type"))
		return allErrs
	}
	if register.AccessKind.IsBit() {
		return allErrs
	}
	if register.WordCount != words {
		allErrs = append(allErrs, field.Invalid(p.Child("wordCount"), register.WordCount, "does not match the data type width"))
	}
	return allErrs
}
