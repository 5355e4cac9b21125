package cuemap

import (
	"regexp"
	"strings"
)

// RewriteRule is a single normalization rewrite applied to a raw cue
// string before it enters the index.
type RewriteRule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
}

// NormalizationConfig controls cue normalization.
type NormalizationConfig struct {
	Lowercase    bool
	Trim         bool
	RewriteRules []RewriteRule
}

// DefaultNormalizationConfig turns on trim and lowercase with no
// rewrite rules.
func DefaultNormalizationConfig() NormalizationConfig {
	return NormalizationConfig{Lowercase: true, Trim: true}
}

// NormalizeTrace records what normalization did to one raw cue, useful
// for the /recall/grounded diagnostic surface.
type NormalizeTrace struct {
	Raw          string
	Normalized   string
	AppliedRules []string
}

// NormalizeCue applies trim -> lowercase -> rewrite rules -> duplicate
// prefix collapse, in that order.
func NormalizeCue(raw string, cfg NormalizationConfig) (Cue, NormalizeTrace) {
	current := raw
	var applied []string

	if cfg.Trim {
		current = strings.TrimSpace(current)
	}
	if cfg.Lowercase {
		current = strings.ToLower(current)
	}
	for _, rule := range cfg.RewriteRules {
		if rule.Pattern == nil {
			continue
		}
		if rule.Pattern.MatchString(current) {
			replaced := rule.Pattern.ReplaceAllString(current, rule.Replace)
			if replaced != current {
				current = replaced
				applied = append(applied, rule.Name)
			}
		}
	}

	// Collapse "key:value:value" -> "key:value" (double-prefix artifact).
	parts := strings.Split(current, ":")
	if len(parts) >= 3 && parts[1] == parts[2] && parts[1] != "" {
		newParts := append([]string{parts[0]}, parts[2:]...)
		current = strings.Join(newParts, ":")
		applied = append(applied, "dedupe_prefix")
	}

	return Cue(current), NormalizeTrace{Raw: raw, Normalized: current, AppliedRules: applied}
}

// Taxonomy restricts which "key:value" cues are admissible.
type Taxonomy struct {
	AllowedKeys          []string
	AllowedValues        map[string][]string
	AllowedValuePrefixes map[string][]string
}

// RejectedCue explains why a cue did not pass taxonomy validation.
type RejectedCue struct {
	Cue    string
	Code   string // "bad_format" | "unknown_key" | "unknown_value"
	Detail string
}

// ValidationReport is the outcome of validating a batch of cues.
type ValidationReport struct {
	Accepted []string
	Rejected []RejectedCue
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ValidateCues enforces k:v format plus, when configured, an allowlist
// of keys and of values (exact or prefix) per key. An empty AllowedKeys
// means the key space is open; constraints on a given key's values only
// apply when that key has entries in AllowedValues/AllowedValuePrefixes.
func ValidateCues(cues []string, tax *Taxonomy) ValidationReport {
	var report ValidationReport
	if tax == nil {
		tax = &Taxonomy{}
	}
	for _, cue := range cues {
		parts := strings.SplitN(cue, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			report.Rejected = append(report.Rejected, RejectedCue{
				Cue: cue, Code: "bad_format", Detail: "cue must be in 'key:value' format",
			})
			continue
		}
		key, value := parts[0], parts[1]

		if len(tax.AllowedKeys) > 0 && !contains(tax.AllowedKeys, key) {
			report.Rejected = append(report.Rejected, RejectedCue{
				Cue: cue, Code: "unknown_key", Detail: "key '" + key + "' is not in allowed_keys",
			})
			continue
		}

		allowedVals, hasVals := tax.AllowedValues[key]
		allowedPrefixes, hasPrefixes := tax.AllowedValuePrefixes[key]
		valueAllowed := true
		if hasVals || hasPrefixes {
			valueAllowed = false
			if hasVals && contains(allowedVals, value) {
				valueAllowed = true
			}
			if !valueAllowed && hasPrefixes {
				for _, p := range allowedPrefixes {
					if strings.HasPrefix(value, p) {
						valueAllowed = true
						break
					}
				}
			}
		}

		if valueAllowed {
			report.Accepted = append(report.Accepted, cue)
		} else {
			report.Rejected = append(report.Rejected, RejectedCue{
				Cue: cue, Code: "unknown_value", Detail: "value '" + value + "' is not allowed for key '" + key + "'",
			})
		}
	}
	return report
}
