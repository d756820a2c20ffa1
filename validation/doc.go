// Package validation provides input validation that yields AppErrors.
//
// Request input is checked with the fluent Validator:
//
//	err := validation.New().
//	    Required("language", lang).
//	    OneOf("language", lang, codes).
//	    Validate()
//
// Config sections are checked with struct tags through Validate:
//
//	type AzureConfig struct {
//	    Region string `validate:"required"`
//	}
package validation
