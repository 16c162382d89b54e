package options

import (
	"fmt"
)

func Validate(o *Options) []error {
	var errs []error
	if err := o.BaseOptions.ValidateAndApply(); err != nil {
		errs = append(errs, err)
	}
	if o.BrokerPort <= 0 || o.BrokerPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid broker port %d", o.BrokerPort))
	}
	if o.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry attempts must be at least 1"))
	}
	if o.Pacing < 0 || o.StartStagger < 0 || o.FaultCooldown < 0 || o.JoinTimeout < 0 {
		errs = append(errs, fmt.Errorf("scheduling delays must not be negative"))
	}

	return errs
}
