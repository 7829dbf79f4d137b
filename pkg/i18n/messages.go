package i18n

// Key names one interface string.
type Key string

const (
	KeySubtitle    Key = "subtitle"
	KeyPlaceholder Key = "placeholder"
	KeyNewChat     Key = "newChat"
	KeyListening   Key = "listening"
	KeyWelcome     Key = "welcome"
	KeyIntro       Key = "intro"
	KeyTopics      Key = "topics"
	KeyTopic1      Key = "topic1"
	KeyTopic2      Key = "topic2"
	KeyTopic3      Key = "topic3"
	KeyTopic4      Key = "topic4"
)

var packs = map[Lang]map[Key]string{
	English: {
		KeySubtitle:    "Type or speak your questions",
		KeyPlaceholder: "Type, speak, or upload an image...",
		KeyNewChat:     "+ New Chat",
		KeyListening:   "Listening... (press Enter to stop)",
		KeyWelcome:     "Welcome to FarmBuddy! 🌾",
		KeyIntro:       "I'm your AI agricultural advisor for Nigerian smallholder farmers.",
		KeyTopics:      "Ask me anything about:",
		KeyTopic1:      "🌱 Crop planting and management",
		KeyTopic2:      "🐛 Pest control",
		KeyTopic3:      "💧 Irrigation and soil health",
		KeyTopic4:      "📊 Farming best practices",
	},
	Hausa: {
		KeySubtitle:    "Rubuta ko kayi magana",
		KeyPlaceholder: "Rubuta, yi magana, ko ɗauki hoto...",
		KeyNewChat:     "+ Sabuwar Tattaunawa",
		KeyListening:   "Ina sauraro...",
		KeyWelcome:     "Barka da zuwa FarmBuddy! 🌾",
		KeyIntro:       "Ni ne mai ba ku shawara kan harkar noma don manoman Najeriya.",
		KeyTopics:      "Tambaye ni komai game da:",
		KeyTopic1:      "🌱 Shuka da kula da amfanin gona",
		KeyTopic2:      "🐛 Kula da kwari",
		KeyTopic3:      "💧 Ban ruwa da lafiyar kasa",
		KeyTopic4:      "📊 Mafi kyawun hanyoyin noma",
	},
	Igbo: {
		KeySubtitle:    "Dee ma ọ bụ kwuo okwu",
		KeyPlaceholder: "Dee, kwuo, ma ọ bụ tinye foto...",
		KeyNewChat:     "+ Nkata Ọhụrụ",
		KeyListening:   "Ana m ege ntị...",
		KeyWelcome:     "Nnọọ na FarmBuddy! 🌾",
		KeyIntro:       "Abụ m onye ndụmọdụ ọrụ ugbo gị maka ndị ọrụ ugbo na Naijiria.",
		KeyTopics:      "Jụọ m ihe ọ bụla gbasara:",
		KeyTopic1:      "🌱 Ịkụ ihe ọkụkụ na njikwa",
		KeyTopic2:      "🐛 Nchịkwa ụmụ ahụhụ",
		KeyTopic3:      "💧 Ịgbara mmiri na ahụike ala",
		KeyTopic4:      "📊 Ụzọ kachasị mma maka ọrụ ugbo",
	},
	Yoruba: {
		KeySubtitle:    "Tẹ tabi sọrọ",
		KeyPlaceholder: "Tẹ, sọrọ, tabi gbe aworan si...",
		KeyNewChat:     "+ Ifọrọwerọ Titun",
		KeyListening:   "Mo n tẹtisi...",
		KeyWelcome:     "Kaabo si FarmBuddy! 🌾",
		KeyIntro:       "Emi ni olugbamoran iṣẹ-ogbin AI rẹ fun awọn agbe kekere ni Nigeria.",
		KeyTopics:      "Beere ohunkohun nipa:",
		KeyTopic1:      "🌱 Gbingbin ati itọju irugbin",
		KeyTopic2:      "🐛 Iṣakoso kokoro",
		KeyTopic3:      "💧 Imudani omi ati ilera ile",
		KeyTopic4:      "📊 Awọn iṣe ti o dara julọ ninu iṣẹ-ogbin",
	},
}

// T returns the string for key in lang, falling back to English and then to
// the key itself.
func T(lang Lang, key Key) string {
	if s, ok := packs[lang][key]; ok {
		return s
	}
	if s, ok := packs[Default][key]; ok {
		return s
	}
	return string(key)
}

// Topics returns the four welcome topics for lang.
func Topics(lang Lang) []string {
	return []string{
		T(lang, KeyTopic1),
		T(lang, KeyTopic2),
		T(lang, KeyTopic3),
		T(lang, KeyTopic4),
	}
}
