// Package config loads the credential/connection record the transport
// needs. Values come from a YAML file and from the environment, with
// environment variables taking precedence field-by-field. Fields left
// unset everywhere are omitted from the record entirely.
package config
