// Package validation provides input validation utilities for tomopipe
// configuration and operator parameters.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for configuration structs.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    MaxConcurrent   int           `validate:"gte=0"`
//	    OperatorTimeout time.Duration `validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", name).Min("dims", dims, 1)
//	err := v.Validate()
package validation
