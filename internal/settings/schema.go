package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// TierRules maps a slot tier ("1", "2", ...) to a non-negative value.
type TierRules map[string]int64

// LuckyWheel configures the lucky wheel round.
type LuckyWheel struct {
	Enabled bool    `json:"enabled"`
	Min     int64   `json:"min"`
	Max     int64   `json:"max"`
	Prob    float64 `json:"prob"`
}

// BombConfig configures bomb spawns.
type BombConfig struct {
	Prob     float64 `json:"prob"`
	CountMin int     `json:"count_min"`
	CountMax int     `json:"count_max"`
}

// CoinConfig configures coin pickups.
type CoinConfig struct {
	TempProb  float64 `json:"temp_prob"`
	TempMin   int     `json:"temp_min"`
	TempMax   int     `json:"temp_max"`
	TempVal   int64   `json:"temp_val"`
	FixedProb float64 `json:"fixed_prob"`
	FixedMin  int     `json:"fixed_min"`
	FixedMax  int     `json:"fixed_max"`
	FixedVal  int64   `json:"fixed_val"`
}

// EggConfig configures surprise eggs.
type EggConfig struct {
	AppearProb float64            `json:"appear_prob"`
	CountMin   int                `json:"count_min"`
	CountMax   int                `json:"count_max"`
	Probs      map[string]float64 `json:"probs"`
	Rewards    map[string]int64   `json:"rewards"`
	Penalties  map[string]int64   `json:"penalties"`
}

// field describes the fixed schema of one key.
type field struct {
	secret bool
	// strict keys fail reads when the stored value is corrupt instead of
	// falling back to the default.
	strict bool
	def    func() any
	decode func(raw json.RawMessage) (any, error)
}

var schema = map[string]field{
	SlotCountKey: {
		def:    func() any { return DefaultSlotCount },
		decode: decodeInt(1, MaxSlotCount),
	},
	LightRulesKey: {
		def:    func() any { return TierRules{"1": 5, "2": 10, "3": 20, "4": 30, "5": 35} },
		decode: decodeTierRules,
	},
	MultiplierRulesKey: {
		def:    func() any { return TierRules{"1": 10, "2": 5, "3": 4, "4": 3, "5": 2} },
		decode: decodeTierRules,
	},
	LuckyWheelKey: {
		def:    func() any { return LuckyWheel{Enabled: true, Min: -50, Max: 200, Prob: 0.4} },
		decode: decodeStruct(validateLuckyWheel),
	},
	BombConfigKey: {
		def:    func() any { return BombConfig{Prob: 0.3, CountMin: 1, CountMax: 3} },
		decode: decodeStruct(validateBombConfig),
	},
	CoinConfigKey: {
		def: func() any {
			return CoinConfig{
				TempProb: 0.5, TempMin: 2, TempMax: 5, TempVal: 10,
				FixedProb: 0.3, FixedMin: 1, FixedMax: 3, FixedVal: 5,
			}
		},
		decode: decodeStruct(validateCoinConfig),
	},
	EggConfigKey: {
		def: func() any {
			return EggConfig{
				AppearProb: 0.2,
				CountMin:   1,
				CountMax:   1,
				Probs:      map[string]float64{"coin": 0.4, "ticket": 0.4, "mouse": 0.2},
				Rewards:    map[string]int64{"coin": 100, "ticket": 50},
				Penalties:  map[string]int64{"coin": 50, "ticket": 20},
			}
		},
		decode: decodeStruct(validateEggConfig),
	},
	ExchangeRateKey: {
		strict: true,
		def:    func() any { return DefaultExchangeRate },
		decode: decodePositiveFloat,
	},
	AIVoiceEnabledKey: {
		def:    func() any { return DefaultAIVoiceEnabled },
		decode: decodeBool,
	},
	OpenAIEndpointKey: {
		def:    func() any { return DefaultOpenAIEndpoint },
		decode: decodeString(),
	},
	OpenAIKeyKey: {
		secret: true,
		def:    func() any { return APIKeyPlaceholder },
		decode: decodeString(),
	},
	AIMaxTokensKey: {
		def:    func() any { return DefaultAIMaxTokens },
		decode: decodeInt(1, math.MaxInt32),
	},
	TTSModeKey: {
		def:    func() any { return TTSModeClient },
		decode: decodeString(TTSModeClient, TTSModeServer),
	},
	TTSEndpointKey: {
		def:    func() any { return DefaultTTSEndpoint },
		decode: decodeString(),
	},
	TTSVoiceNameKey: {
		def:    func() any { return DefaultTTSVoiceName },
		decode: decodeString(),
	},
	TTSAudioPathKey: {
		def:    func() any { return DefaultTTSAudioPath },
		decode: decodeString(),
	},
}

// Keys returns every known configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether key must never leave the server.
func IsSecret(key string) bool {
	return schema[key].secret
}

// scalarText unwraps a JSON string so numeric and boolean keys written as
// quoted text are still accepted.
func scalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	var s string
	if len(trimmed) > 0 && trimmed[0] == '"' {
		if errUnmarshal := json.Unmarshal(trimmed, &s); errUnmarshal == nil {
			return strings.TrimSpace(s)
		}
	}
	return string(trimmed)
}

func decodeInt(min, max int) func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		n, errParse := strconv.Atoi(scalarText(raw))
		if errParse != nil {
			return nil, fmt.Errorf("expected an integer")
		}
		if n < min || n > max {
			return nil, fmt.Errorf("must be between %d and %d", min, max)
		}
		return n, nil
	}
}

func decodePositiveFloat(raw json.RawMessage) (any, error) {
	f, errParse := strconv.ParseFloat(scalarText(raw), 64)
	if errParse != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("expected a number")
	}
	if f <= 0 {
		return nil, fmt.Errorf("must be greater than 0")
	}
	return f, nil
}

func decodeBool(raw json.RawMessage) (any, error) {
	b, errParse := strconv.ParseBool(strings.ToLower(scalarText(raw)))
	if errParse != nil {
		return nil, fmt.Errorf("expected a boolean")
	}
	return b, nil
}

func decodeString(allowed ...string) func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		var s string
		if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal != nil {
			return nil, fmt.Errorf("expected a string")
		}
		s = strings.TrimSpace(s)
		if len(allowed) == 0 {
			return s, nil
		}
		for _, option := range allowed {
			if s == option {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

func decodeTierRules(raw json.RawMessage) (any, error) {
	var rules TierRules
	if errUnmarshal := json.Unmarshal(raw, &rules); errUnmarshal != nil {
		return nil, fmt.Errorf("expected an object of tier to integer")
	}
	for tier, value := range rules {
		n, errParse := strconv.Atoi(tier)
		if errParse != nil || n < 1 {
			return nil, fmt.Errorf("tier %q must be a positive integer", tier)
		}
		if value < 0 {
			return nil, fmt.Errorf("tier %q must not be negative", tier)
		}
	}
	return rules, nil
}

func decodeStruct[T any](validate func(T) error) func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		var out T
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if errDecode := dec.Decode(&out); errDecode != nil {
			return nil, fmt.Errorf("invalid object: %v", errDecode)
		}
		if errValidate := validate(out); errValidate != nil {
			return nil, errValidate
		}
		return out, nil
	}
}

func checkProb(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%s must be within [0,1]", name)
	}
	return nil
}

func checkRange(name string, min, max int64) error {
	if min > max {
		return fmt.Errorf("%s min must not exceed max", name)
	}
	return nil
}

func checkCount(name string, min, max int) error {
	if min < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return checkRange(name, int64(min), int64(max))
}

func validateLuckyWheel(v LuckyWheel) error {
	if err := checkProb("prob", v.Prob); err != nil {
		return err
	}
	return checkRange("lucky wheel", v.Min, v.Max)
}

func validateBombConfig(v BombConfig) error {
	if err := checkProb("prob", v.Prob); err != nil {
		return err
	}
	return checkCount("count", v.CountMin, v.CountMax)
}

func validateCoinConfig(v CoinConfig) error {
	if err := checkProb("temp_prob", v.TempProb); err != nil {
		return err
	}
	if err := checkProb("fixed_prob", v.FixedProb); err != nil {
		return err
	}
	if err := checkCount("temp", v.TempMin, v.TempMax); err != nil {
		return err
	}
	if err := checkCount("fixed", v.FixedMin, v.FixedMax); err != nil {
		return err
	}
	if v.TempVal < 0 || v.FixedVal < 0 {
		return fmt.Errorf("coin values must not be negative")
	}
	return nil
}

func validateEggConfig(v EggConfig) error {
	if err := checkProb("appear_prob", v.AppearProb); err != nil {
		return err
	}
	if err := checkCount("count", v.CountMin, v.CountMax); err != nil {
		return err
	}
	for name, p := range v.Probs {
		if err := checkProb("probs."+name, p); err != nil {
			return err
		}
	}
	for name, amount := range v.Rewards {
		if amount < 0 {
			return fmt.Errorf("rewards.%s must not be negative", name)
		}
	}
	for name, amount := range v.Penalties {
		if amount < 0 {
			return fmt.Errorf("penalties.%s must not be negative", name)
		}
	}
	return nil
}
