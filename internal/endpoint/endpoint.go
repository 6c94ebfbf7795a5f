// Package endpoint implements the external-collaborator contract (§6):
// parsing a request host into (service, region) and the inverse,
// formatting a host from (service, region). This is a default,
// overridable implementation — the specification treats endpoint
// parsing as something the library is handed, not something it must
// get exactly right for every AWS region/partition forever.
//
// The alias table (ses↔email, transcribestreaming↔transcribe) is
// loaded the way the teacher's internal/config loads its Config: a
// mapstructure-tagged struct unmarshaled by spf13/viper, falling back
// to the built-in defaults when no override file or environment is
// supplied.
package endpoint

import (
	"strings"

	"github.com/spf13/viper"
)

// DefaultRegion is used whenever a host or credentials value omits a
// region.
const DefaultRegion = "us-east-1"

// aliases maps a canonical service name to the endpoint token AWS
// actually embeds in the hostname, and back. Both directions are kept
// in one table since the mapping is its own inverse by construction.
var aliases = map[string]string{
	"email":               "ses",
	"ses":                 "email",
	"transcribe":          "transcribestreaming",
	"transcribestreaming": "transcribe",
}

// AliasOverrides is the mapstructure shape loaded from an optional
// config file/environment, letting an embedding application extend or
// replace the built-in alias table without a code change.
type AliasOverrides struct {
	Aliases map[string]string `mapstructure:"aliases"`
}

// LoadAliasOverrides reads additional service aliases from configPath
// (any format viper supports: yaml, json, toml, env) and merges them
// into the process-wide alias table. A missing path is not an error;
// the built-in table is left as-is.
func LoadAliasOverrides(configPath string) error {
	if configPath == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	var overrides AliasOverrides
	if err := v.Unmarshal(&overrides); err != nil {
		return err
	}
	for k, v := range overrides.Aliases {
		aliases[strings.ToLower(k)] = strings.ToLower(v)
	}
	return nil
}

// ParseHost recognizes:
//   - <service>.<region>.amazonaws.com(.cn)?
//   - <region>.<service>.amazonaws.com   (the legacy reversed form)
//   - s3-<region>.amazonaws.com          (the legacy S3 dashed form)
//
// and strips a "-fips" suffix from either label before matching. When
// the host has only one label before the TLD, it is treated as the
// service with region defaulting to DefaultRegion.
func ParseHost(host string) (service, region string) {
	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ".amazonaws.com.cn")
	host = strings.TrimSuffix(host, ".amazonaws.com")

	labels := strings.Split(host, ".")
	for i, l := range labels {
		labels[i] = strings.TrimSuffix(l, "-fips")
	}

	switch len(labels) {
	case 1:
		label := labels[0]
		if strings.HasPrefix(label, "s3-") {
			return "s3", strings.TrimPrefix(label, "s3-")
		}
		return label, DefaultRegion
	case 2:
		first, second := labels[0], labels[1]
		// <service>.<region> is by far the common modern form; the
		// legacy reversed <region>.<service> form only occurs for a
		// small, long-frozen set of pre-2017 endpoints, so a service
		// name is distinguished by NOT looking like a region (region
		// names always contain a hyphenated direction, e.g. us-east-1).
		if looksLikeRegion(second) {
			return first, second
		}
		if looksLikeRegion(first) {
			return second, first
		}
		return first, second
	default:
		return strings.Join(labels, "."), DefaultRegion
	}
}

// looksLikeRegion is a heuristic: AWS region identifiers are always
// lower-case, hyphenated, and end in a digit (us-east-1, eu-central-1,
// ap-southeast-2, cn-north-1).
func looksLikeRegion(label string) bool {
	if label == "" {
		return false
	}
	last := label[len(label)-1]
	return last >= '0' && last <= '9' && strings.Contains(label, "-")
}

// FormatHost is ParseHost's inverse: builds the canonical
// "<service>.<region>.amazonaws.com" hostname. An empty region formats
// as DefaultRegion.
func FormatHost(service, region string) string {
	if region == "" {
		region = DefaultRegion
	}
	suffix := "amazonaws.com"
	if strings.HasPrefix(region, "cn-") {
		suffix = "amazonaws.com.cn"
	}
	return service + "." + region + "." + suffix
}

// ResolveServiceAlias returns the other name in an aliased pair
// (ses<->email, transcribe<->transcribestreaming), or service
// unchanged if it has no known alias.
func ResolveServiceAlias(service string) string {
	if alias, ok := aliases[strings.ToLower(service)]; ok {
		return alias
	}
	return service
}
