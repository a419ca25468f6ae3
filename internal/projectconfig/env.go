package projectconfig

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const envPrefix = "BENCHGATE_"

// EnvDefaults are flag defaults supplied by the CI environment. Nil or empty
// fields were not set.
type EnvDefaults struct {
	TotalPartitions *int     `mapstructure:"BENCHGATE_TOTAL_PARTITIONS"`
	PartitionID     *int     `mapstructure:"BENCHGATE_PARTITION_ID"`
	Exclude         []string `mapstructure:"BENCHGATE_EXCLUDE"`
	Device          string   `mapstructure:"BENCHGATE_DEVICE"`
}

// EnvFromEnviron decodes BENCHGATE_* entries from an os.Environ-style list.
// Unknown BENCHGATE_* names are ignored; blank values count as unset.
func EnvFromEnviron(environ []string) (EnvDefaults, error) {
	raw := make(map[string]any)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, envPrefix) || strings.TrimSpace(v) == "" {
			continue
		}
		raw[k] = strings.TrimSpace(v)
	}

	var env EnvDefaults
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &env,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return EnvDefaults{}, fmt.Errorf("creating env decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return EnvDefaults{}, fmt.Errorf("decoding %s* environment: %w", envPrefix, err)
	}

	trimmed := env.Exclude[:0]
	for _, id := range env.Exclude {
		if id = strings.TrimSpace(id); id != "" {
			trimmed = append(trimmed, id)
		}
	}
	env.Exclude = trimmed
	return env, nil
}

// IntOr returns *p, or def when p is nil.
func IntOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
