package domain

import "strings"

// The portal reports feature_stats under terse internal abbreviations. The
// known oddballs map to readable names; anything else converts generically
// from snake_case to camelCase.
var featureNames = map[string]string{
	"elc":              "turboOrStorageSync",
	"adv_branding":     "advancedBranding",
	"sf_integration_2": "salesForceIntegration",
	"tfa_integration":  "twoFactorAuthIntegration",
	"tfa_voice_calls":  "twoFactorAuthVoice",
	"tfa_sms":          "twoFactorAuthSms",
	"used_su":          "usedStandardUsers",
	"additional_su":    "additionalStandardUsers",
}

// MapFeatures renames raw feature counters and derives totalStandardUserPacks.
// Standard users are billed in packs of five: the pack count is the seats
// purchased beyond the consumed power users, rounded up.
func MapFeatures(raw map[string]int) map[string]int {
	features := make(map[string]int, len(raw)+1)

	for key, value := range raw {
		name, ok := featureNames[key]
		if !ok {
			name = snakeToCamel(key)
		}
		features[name] = value
	}

	features["totalStandardUserPacks"] = StandardUserPacks(raw["additional_su"], raw["total_power_users"])

	return features
}

// StandardUserPacks returns ceil((additionalSU - totalPowerUsers) / PackSize).
func StandardUserPacks(additionalSU, totalPowerUsers int) int {
	diff := additionalSU - totalPowerUsers
	if diff < 0 {
		return -(-diff / PackSize)
	}

	return (diff + PackSize - 1) / PackSize
}

func snakeToCamel(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	if len(parts) == 0 {
		return s
	}

	var b strings.Builder
	b.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}

	return b.String()
}
