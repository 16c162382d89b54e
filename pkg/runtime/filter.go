package runtime

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"k8s.io/klog/v2"
)

type NameFilterFunc struct {
	Eq         string
	In         []string
	Contains   string
	StartsWith string
	EndsWith   string
}

// DeviceFilter narrows a device listing. Name accepts either a plain string
// or a NameFilterFunc shaped object.
type DeviceFilter struct {
	Name       interface{}
	DeviceType string
	Port       string
}

type predicateType func(d *Device) bool

func ParseTypeFilter(filter *DeviceFilter) []predicateType {
	predicates := make([]predicateType, 0)

	if len(filter.DeviceType) > 0 {
		p := func(d *Device) bool {
			return filter.DeviceType == d.DeviceType
		}
		predicates = append(predicates, p)
	}

	if len(filter.Port) > 0 {
		p := func(d *Device) bool {
			return filter.Port == d.Port
		}
		predicates = append(predicates, p)
	}

	if filter.Name != nil {
		if name, ok := filter.Name.(string); ok {
			p := func(d *Device) bool {
				return name == d.Name
			}
			predicates = append(predicates, p)
		} else {
			var ff NameFilterFunc
			if err := mapstructure.Decode(filter.Name, &ff); err != nil {
				klog.V(3).InfoS("Failed to parse filter.name", "err", err)
			}
			if len(ff.Eq) > 0 {
				p := func(d *Device) bool {
					return ff.Eq == d.Name
				}
				predicates = append(predicates, p)
			}
			if len(ff.In) > 0 {
				p := func(d *Device) bool {
					for _, name := range ff.In {
						if name == d.Name {
							return true
						}
					}
					return false
				}
				predicates = append(predicates, p)
			}
			if len(ff.Contains) > 0 {
				p := func(d *Device) bool {
					return strings.Contains(d.Name, ff.Contains)
				}
				predicates = append(predicates, p)
			}
			if len(ff.StartsWith) > 0 {
				p := func(d *Device) bool {
					return strings.HasPrefix(d.Name, strings.TrimSpace(ff.StartsWith))
				}
				predicates = append(predicates, p)
			}
			if len(ff.EndsWith) > 0 {
				p := func(d *Device) bool {
					return strings.HasSuffix(d.Name, strings.TrimSpace(ff.EndsWith))
				}
				predicates = append(predicates, p)
			}
		}
	}

	return predicates
}

// MatchDevice applies every predicate.
func MatchDevice(d *Device, predicates []predicateType) bool {
	for _, p := range predicates {
		if !p(d) {
			return false
		}
	}
	return true
}
