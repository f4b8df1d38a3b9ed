// Package config holds embedleak's run configuration: the flag-driven Config
// and the optional YAML file that carries category rules, the quote
// catalogue, confidence thresholds and synthesis parameters.
package config
