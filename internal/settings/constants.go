package settings

// Reward configuration keys persisted in game_config.
const (
	// SlotCountKey is the number of scoring slots on the board.
	SlotCountKey = "slot_count"
	// LightRulesKey maps a lit-slot tier to its bonus.
	LightRulesKey = "light_rules"
	// MultiplierRulesKey maps a slot tier to its payout multiplier.
	MultiplierRulesKey = "multiplier_rules"
	// LuckyWheelKey configures the lucky wheel bonus round.
	LuckyWheelKey = "lucky_wheel"
	// BombConfigKey configures bomb spawns.
	BombConfigKey = "bomb_config"
	// CoinConfigKey configures temporary and fixed coin pickups.
	CoinConfigKey = "coin_config"
	// EggConfigKey configures surprise eggs.
	EggConfigKey = "egg_config"
	// ExchangeRateKey is the coins granted per ticket when exchanging.
	ExchangeRateKey = "exchange_rate"
	// AIVoiceEnabledKey toggles AI commentary.
	AIVoiceEnabledKey = "ai_voice_enabled"
	// OpenAIEndpointKey is the chat completion endpoint for commentary.
	OpenAIEndpointKey = "openai_api_endpoint"
	// OpenAIKeyKey is the commentary API key. It is never exposed to clients.
	OpenAIKeyKey = "openai_api_key"
	// AIMaxTokensKey caps commentary length.
	AIMaxTokensKey = "ai_max_tokens"
	// TTSModeKey selects where speech is synthesized.
	TTSModeKey = "tts_mode"
	// TTSEndpointKey is the speech synthesis endpoint.
	TTSEndpointKey = "tts_api_endpoint"
	// TTSVoiceNameKey is the synthesis voice.
	TTSVoiceNameKey = "tts_voice_name"
	// TTSAudioPathKey is where synthesized audio is cached.
	TTSAudioPathKey = "tts_audio_local_path"
)

// Defaults applied when a key has never been written.
const (
	DefaultSlotCount      = 14
	DefaultExchangeRate   = 0.1
	DefaultAIVoiceEnabled = true
	DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultAIMaxTokens    = 60
	DefaultTTSEndpoint    = "http://127.0.0.1:7530/api/v1/tts/generate"
	DefaultTTSVoiceName   = "zh-CN-YunxiNeural"
	DefaultTTSAudioPath   = "data/audio"

	// APIKeyPlaceholder marks an API key that was never configured.
	APIKeyPlaceholder = "YOUR_API_KEY_HERE"
)

// Speech synthesis modes.
const (
	TTSModeClient = "client"
	TTSModeServer = "server"
)

// MaxSlotCount bounds slot_count.
const MaxSlotCount = 64
