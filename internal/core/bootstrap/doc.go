// Package bootstrap turns raw command-line parameters into a validated,
// immutable BootstrapConfig.
//
// This package is part of the functional core: Validate is a pure function of
// its inputs and performs no I/O. Checking that the code path exists on disk
// is left to the caller.
//
// # Usage
//
//	cfg, err := bootstrap.Validate(bootstrap.RawParams{
//	    WebPort:  "8000",
//	    CodePath: "/srv/moodle",
//	})
//	if errors.Is(err, bootstrap.ErrValidation) {
//	    // report and exit non-zero before touching any service
//	}
package bootstrap
