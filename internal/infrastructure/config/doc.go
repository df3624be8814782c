// Package config handles loading and validation of the backplate gateway
// configuration.
//
// Configuration is loaded from a YAML file with environment variable
// overrides (BACKPLATE_* pattern). Defaults are applied before the file is
// parsed, so a minimal config only needs the values that differ from them.
//
// # Loading Order
//
//  1. Hardcoded defaults
//  2. YAML file values
//  3. Environment variables
//
// Example:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Gateway.SerialPath)
package config
