package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLONEVAL_DATASET_ROOT
const EnvPrefix = "CLONEVAL"

type envSetter func(v *viper.Viper, key string, cfg *Config) error

// envBindings maps configuration keys to the field they override
var envBindings = map[string]envSetter{
	"dataset.root":        setString(func(c *Config) *string { return &c.Dataset.Root }),
	"dataset.clone_types": setList(func(c *Config) *[]string { return &c.Dataset.CloneTypes }),
	"dataset.seeds":       setIntList(func(c *Config) *[]int { return &c.Dataset.Seeds }),

	"ground_truth.glob":          setString(func(c *Config) *string { return &c.GroundTruth.Glob }),
	"ground_truth.path_template": setString(func(c *Config) *string { return &c.GroundTruth.PathTemplate }),
	"ground_truth.format":        setString(func(c *Config) *string { return &c.GroundTruth.Format }),
	"ground_truth.normalizer":    setString(func(c *Config) *string { return &c.GroundTruth.Normalizer }),

	"detector.path_template": setString(func(c *Config) *string { return &c.Detector.PathTemplate }),
	"detector.format":        setString(func(c *Config) *string { return &c.Detector.Format }),
	"detector.normalizer":    setString(func(c *Config) *string { return &c.Detector.Normalizer }),

	"samples.path_template": setString(func(c *Config) *string { return &c.Samples.PathTemplate }),

	"loader.header_mode":      setString(func(c *Config) *string { return &c.Loader.HeaderMode }),
	"loader.header_marker":    setString(func(c *Config) *string { return &c.Loader.HeaderMarker }),
	"loader.existence_filter": setBool(func(c *Config) *bool { return &c.Loader.ExistenceFilter }),
	"loader.source_root":      setString(func(c *Config) *string { return &c.Loader.SourceRoot }),
	"loader.delimiter":        setString(func(c *Config) *string { return &c.Loader.Delimiter }),

	"metrics.k_values": setIntList(func(c *Config) *[]int { return &c.Metrics.KValues }),

	"performance.max_workers":     setInt(func(c *Config) *int { return &c.Performance.MaxWorkers }),
	"performance.timeout_seconds": setInt(func(c *Config) *int { return &c.Performance.TimeoutSeconds }),
	"performance.cache_size":      setInt(func(c *Config) *int { return &c.Performance.CacheSize }),

	"output.format":        setString(func(c *Config) *string { return &c.Output.Format }),
	"output.directory":     setString(func(c *Config) *string { return &c.Output.Directory }),
	"output.results_file":  setString(func(c *Config) *string { return &c.Output.ResultsFile }),
	"output.show_progress": setBool(func(c *Config) *bool { return &c.Output.ShowProgress }),

	"results.postgres_dsn": setString(func(c *Config) *string { return &c.Results.PostgresDSN }),

	"archive.enabled":    setBool(func(c *Config) *bool { return &c.Archive.Enabled }),
	"archive.endpoint":   setString(func(c *Config) *string { return &c.Archive.Endpoint }),
	"archive.access_key": setString(func(c *Config) *string { return &c.Archive.AccessKey }),
	"archive.secret_key": setString(func(c *Config) *string { return &c.Archive.SecretKey }),
	"archive.bucket":     setString(func(c *Config) *string { return &c.Archive.Bucket }),
	"archive.region":     setString(func(c *Config) *string { return &c.Archive.Region }),
	"archive.use_ssl":    setBool(func(c *Config) *bool { return &c.Archive.UseSSL }),
}

// EnvName returns the environment variable that overrides key
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// ApplyEnv overrides cfg with CLONEVAL_* environment variables. A .env file
// in the working directory is loaded first; existing variables win.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, set := range envBindings {
		if !v.IsSet(key) {
			continue
		}
		if err := set(v, key, cfg); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	return nil
}

func setString(field func(*Config) *string) envSetter {
	return func(v *viper.Viper, key string, cfg *Config) error {
		*field(cfg) = v.GetString(key)
		return nil
	}
}

func setBool(field func(*Config) *bool) envSetter {
	return func(v *viper.Viper, key string, cfg *Config) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

func setInt(field func(*Config) *int) envSetter {
	return func(v *viper.Viper, key string, cfg *Config) error {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func setList(field func(*Config) *[]string) envSetter {
	return func(v *viper.Viper, key string, cfg *Config) error {
		*field(cfg) = SplitList(v.GetString(key))
		return nil
	}
}

func setIntList(field func(*Config) *[]int) envSetter {
	return func(v *viper.Viper, key string, cfg *Config) error {
		ints, err := ParseIntList(v.GetString(key))
		if err != nil {
			return err
		}
		*field(cfg) = ints
		return nil
	}
}

// SplitList splits a comma separated list, dropping empty items
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseIntList parses a comma separated list of integers. Ranges such as
// "0-9" are expanded.
func ParseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range SplitList(s) {
		if lo, hi, ok := strings.Cut(part, "-"); ok && lo != "" {
			from, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("invalid range %q: %w", part, err)
			}
			to, err := strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("invalid range %q: %w", part, err)
			}
			if to < from {
				return nil, fmt.Errorf("invalid range %q: end before start", part)
			}
			for i := from; i <= to; i++ {
				out = append(out, i)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}
