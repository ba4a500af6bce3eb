// Package config handles loading and validating the bridge daemon's
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields (klf200.host, klf200.password, port, qos)
//   - Reading the separate operator broker file (dataDir/mqtt-broker.yaml)
//
// Security Considerations:
//   - klf200.password should be set via KLF200BRIDGE_KLF200_PASSWORD in
//     production rather than committed to the config file
//   - The config file and broker file should have restricted permissions
//
// Usage:
//
//	cfg, err := config.Load("/etc/klf200bridge/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	broker, err := config.LoadBrokerFile(cfg.DataDir)
package config
