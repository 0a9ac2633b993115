package model

import (
	"encoding/json"
	"regexp"
)

// overrideKeyPattern implements the dotted-override key grammar:
//
//	override-key := base ( ':' config-cond )? ( '.' plat-cond )?
//	config-cond  := ('!')? identifier
//	plat-cond    := ('!')? ('windows'|'macos'|'linux')
var overrideKeyPattern = regexp.MustCompile(
	`^(?P<base>[^:.!]+)(?::(?P<cfgneg>!)?(?P<cfg>[^.]+))?(?:\.(?P<platneg>!)?(?P<plat>windows|macos|linux))?$`,
)

// parsedOverrideKey is one object key decomposed per the grammar above.
type parsedOverrideKey struct {
	Base string

	HasConfig   bool
	ConfigNeg   bool
	Config      string

	HasPlatform bool
	PlatformNeg bool
	Platform    Platform
}

// parseOverrideKey decomposes a raw object key. Keys that don't match the
// grammar at all (no base captured) are returned with ok=false and should
// be passed through unresolved by the caller — schema validation is
// responsible for rejecting genuinely malformed keys.
func parseOverrideKey(key string) (parsedOverrideKey, bool) {
	m := overrideKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return parsedOverrideKey{}, false
	}
	names := overrideKeyPattern.SubexpNames()
	get := func(name string) string {
		for i, n := range names {
			if n == name {
				return m[i]
			}
		}
		return ""
	}
	p := parsedOverrideKey{Base: get("base")}
	if cfg := get("cfg"); cfg != "" {
		p.HasConfig = true
		p.ConfigNeg = get("cfgneg") == "!"
		p.Config = cfg
	}
	if plat := get("plat"); plat != "" {
		p.HasPlatform = true
		p.PlatformNeg = get("platneg") == "!"
		p.Platform = Platform(plat)
	}
	return p, true
}

// matches reports whether this key's config/platform suffixes permit the
// given platform and active configuration (accounting for "!" negation).
func (p parsedOverrideKey) matches(platform Platform, configuration string) bool {
	if p.HasPlatform {
		eq := p.Platform == platform
		if p.PlatformNeg {
			eq = !eq
		}
		if !eq {
			return false
		}
	}
	if p.HasConfig {
		eq := p.Config == configuration
		if p.ConfigNeg {
			eq = !eq
		}
		if !eq {
			return false
		}
	}
	return true
}

// specificity scores a key for precedence, highest first: base:cfg.platform(3) > base:cfg(2) > base.platform(1) >
// base(0).
func (p parsedOverrideKey) specificity() int {
	score := 0
	if p.HasConfig {
		score += 2
	}
	if p.HasPlatform {
		score += 1
	}
	return score
}

// ResolveOverrides applies dotted-key override resolution to one JSON
// object's ordered key/value pairs, returning a map of resolved base
// keys to their winning raw value. Suffixed keys never reach the result:
// the resolved object contains only base keys, so downstream decoding
// never sees a platform or configuration suffix.
//
// ResolveOverrides is idempotent: re-running it on an already-resolved
// object (whose keys carry no suffixes) returns the object unchanged.
func ResolveOverrides(pairs []KV, platform Platform, configuration string) map[string]json.RawMessage {
	type winner struct {
		value       json.RawMessage
		specificity int
		docOrder    int
	}
	winners := make(map[string]winner)

	for i, kv := range pairs {
		parsed, ok := parseOverrideKey(kv.Key)
		if !ok {
			continue
		}
		if !parsed.matches(platform, configuration) {
			continue
		}
		current, exists := winners[parsed.Base]
		candidate := winner{value: kv.Raw, specificity: parsed.specificity(), docOrder: i}
		if !exists {
			winners[parsed.Base] = candidate
			continue
		}
		if candidate.specificity > current.specificity ||
			(candidate.specificity == current.specificity && candidate.docOrder > current.docOrder) {
			winners[parsed.Base] = candidate
		}
	}

	out := make(map[string]json.RawMessage, len(winners))
	for base, w := range winners {
		out[base] = w.value
	}
	return out
}
