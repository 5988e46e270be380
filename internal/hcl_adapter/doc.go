// Package hcl_adapter is the HCL implementation of config.Loader. It parses
// every .hcl file under the given paths, resolves variables and environment
// references, and translates the decoded blocks into a validated config.Model.
package hcl_adapter
