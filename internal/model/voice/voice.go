package voice

// Voice 描述一个可供前端选择的合成音色。
type Voice struct {
	ID          string `json:"name"`
	Speaker     string `json:"voice_id"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
	// Emotive 表示该音色支持情感参数
	Emotive bool `json:"emotive"`
}

// DefaultVoiceID is the voice used until a user picks another one.
const DefaultVoiceID = "bella"

// Seed returns the built-in voice catalogue.
func Seed() []Voice {
	return []Voice{
		{
			ID:          "rachel",
			Speaker:     "en_female_candice_emo_v2_mars_bigtts",
			Gender:      "female",
			Description: "Calm and empathetic female voice, perfect for therapy sessions",
			Emotive:     true,
		},
		{
			ID:          "bella",
			Speaker:     "en_female_skye_emo_v2_mars_bigtts",
			Gender:      "female",
			Description: "Gentle and caring female voice, very natural and human-like",
			Emotive:     true,
		},
		{
			ID:          "domi",
			Speaker:     "en_female_sarah_new_conversation_wvae_bigtts",
			Gender:      "female",
			Description: "Warm and supportive female voice, comforting for difficult times",
		},
		{
			ID:          "elli",
			Speaker:     "en_female_amanda_mars_bigtts",
			Gender:      "female",
			Description: "Soft and kind female voice, excellent for anxiety relief",
		},
		{
			ID:          "josh",
			Speaker:     "en_male_glen_emo_v2_mars_bigtts",
			Gender:      "male",
			Description: "Calm and reassuring male voice, professional yet approachable",
			Emotive:     true,
		},
		{
			ID:          "adam",
			Speaker:     "en_male_corey_emo_v2_mars_bigtts",
			Gender:      "male",
			Description: "Deep and comforting male voice, stable and trustworthy",
			Emotive:     true,
		},
	}
}
